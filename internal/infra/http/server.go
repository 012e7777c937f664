package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	srv *http.Server
}

func New(addr string, h *Handlers, log *slog.Logger, exposeMetrics bool) *Server {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if exposeMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	{
		api.GET("/materials", h.ListMaterials)
		api.POST("/materials", h.CreateMaterial)
		api.GET("/materials/:id", h.GetMaterial)
		api.PUT("/materials/:id", h.UpdateMaterial)
		api.DELETE("/materials/:id", h.DeleteMaterial)

		api.GET("/movements", h.ListMovements)
		api.POST("/movements/in", h.RecordInbound)
		api.POST("/movements/out", h.RecordOutbound)

		api.GET("/loans", h.ListLoans)
		api.POST("/loans", h.OpenLoan)
		api.POST("/loans/:id/return", h.ReturnLoan)

		api.GET("/in-use", h.ListInUse)
		api.POST("/in-use", h.Allocate)

		api.GET("/stats", h.Stats)

		api.GET("/reports/inventory", h.InventoryReport)
		api.GET("/reports/low-stock", h.LowStockReport)
		api.GET("/reports/movements", h.MovementsReport)
	}

	return &Server{srv: &http.Server{Addr: addr, Handler: r}}
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
