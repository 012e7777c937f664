// Package stats derives read-only aggregates over the registry and the three
// trackers. Nothing is cached; every call recomputes from current state.
package stats

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Summary struct {
	TotalMaterials     int64           `json:"total_materials"`
	LowStockCount      int64           `json:"low_stock_count"`
	OutOfStockCount    int64           `json:"out_of_stock_count"`
	ActiveLoanCount    int64           `json:"active_loan_count"`
	InUseCount         int64           `json:"in_use_count"`
	MovementsThisMonth int64           `json:"movements_this_month"`
	TotalValuation     decimal.Decimal `json:"total_valuation"`
}

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Summary(ctx context.Context) (*Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM materials),
			(SELECT COUNT(*) FROM materials WHERE quantity > 0 AND quantity <= min_stock),
			(SELECT COUNT(*) FROM materials WHERE quantity = 0),
			(SELECT COUNT(*) FROM loans WHERE returned_at IS NULL),
			(SELECT COUNT(*) FROM in_use),
			(SELECT COUNT(*) FROM movements WHERE created_at >= date_trunc('month', now())),
			(SELECT COALESCE(SUM(quantity * unit_cost), 0) FROM materials)
	`).Scan(
		&s.TotalMaterials,
		&s.LowStockCount,
		&s.OutOfStockCount,
		&s.ActiveLoanCount,
		&s.InUseCount,
		&s.MovementsThisMonth,
		&s.TotalValuation,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
