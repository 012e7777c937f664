package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stockOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_stock_operations_total",
		Help: "Stock-affecting operations by kind and outcome.",
	}, []string{"op", "result"})

	ReportDownloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_report_downloads_total",
		Help: "Generated report downloads by report kind.",
	}, []string{"report"})
)

// ObserveStockOp counts one tracker operation. Rejections (insufficient
// stock, unknown material, state violations) land in result="rejected".
func ObserveStockOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	stockOps.WithLabelValues(op, result).Inc()
}
