package inuse

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/aguaops/ptar-inventory/internal/domain/materials"
	"github.com/aguaops/ptar-inventory/internal/ledger"
)

type Repo struct {
	pool      *pgxpool.Pool
	materials *materials.Repo
}

func NewRepo(pool *pgxpool.Pool, mats *materials.Repo) *Repo {
	return &Repo{pool: pool, materials: mats}
}

func (r *Repo) Allocate(ctx context.Context, materialID int64, qty decimal.Decimal, equipment, responsible, notes string) (*Allocation, error) {
	if !qty.IsPositive() {
		return nil, ledger.ErrInvalidQuantity
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := r.materials.AdjustQuantity(ctx, tx, materialID, qty.Neg()); err != nil {
		return nil, err
	}

	var a Allocation
	if err := tx.QueryRow(ctx, `
		INSERT INTO in_use (material_id, quantity, equipment, responsible, notes)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, material_id, quantity, equipment, responsible, notes, installed_at
	`, materialID, qty, equipment, responsible, notes).Scan(
		&a.ID, &a.MaterialID, &a.Quantity, &a.Equipment, &a.Responsible, &a.Notes, &a.InstalledAt,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) List(ctx context.Context) ([]WithMaterial, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.material_id, a.quantity, a.equipment, a.responsible, a.notes, a.installed_at,
		       m.code, m.name
		FROM in_use a
		JOIN materials m ON m.id = a.material_id
		ORDER BY a.installed_at DESC, a.id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WithMaterial
	for rows.Next() {
		var it WithMaterial
		if err := rows.Scan(
			&it.ID, &it.MaterialID, &it.Quantity, &it.Equipment, &it.Responsible, &it.Notes,
			&it.InstalledAt, &it.MaterialCode, &it.MaterialName,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
