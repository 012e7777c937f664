package movements

import (
	"context"
	"fmt"

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

func (r *Repo) RecordInbound(ctx context.Context, materialID int64, qty decimal.Decimal, source, responsible, notes string) (*Movement, error) {
	return r.record(ctx, materialID, qty, DirIn, source, responsible, notes)
}

func (r *Repo) RecordOutbound(ctx context.Context, materialID int64, qty decimal.Decimal, destination, responsible, notes string) (*Movement, error) {
	return r.record(ctx, materialID, qty, DirOut, destination, responsible, notes)
}

// record runs the quantity adjustment and the ledger insert in one
// transaction; a rejected adjustment leaves no record behind.
func (r *Repo) record(ctx context.Context, materialID int64, qty decimal.Decimal, dir Direction, counterparty, responsible, notes string) (*Movement, error) {
	if !qty.IsPositive() {
		return nil, ledger.ErrInvalidQuantity
	}
	delta := qty
	if dir == DirOut {
		delta = qty.Neg()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := r.materials.AdjustQuantity(ctx, tx, materialID, delta); err != nil {
		return nil, err
	}

	var mv Movement
	if err := tx.QueryRow(ctx, `
		INSERT INTO movements (material_id, direction, quantity, counterparty, responsible, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, material_id, direction, quantity, counterparty, responsible, notes, created_at
	`, materialID, string(dir), qty, counterparty, responsible, notes).Scan(
		&mv.ID, &mv.MaterialID, &mv.Direction, &mv.Quantity,
		&mv.Counterparty, &mv.Responsible, &mv.Notes, &mv.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &mv, nil
}

func (r *Repo) List(ctx context.Context, f Filter) ([]WithMaterial, error) {
	q := `
		SELECT mv.id, mv.material_id, mv.direction, mv.quantity, mv.counterparty, mv.responsible, mv.notes, mv.created_at,
		       m.code, m.name
		FROM movements mv
		JOIN materials m ON m.id = mv.material_id
		WHERE 1=1`
	var args []any

	if f.Direction != "" {
		args = append(args, string(f.Direction))
		q += fmt.Sprintf(" AND mv.direction = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		q += fmt.Sprintf(" AND mv.created_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		q += fmt.Sprintf(" AND mv.created_at < $%d", len(args))
	}
	q += " ORDER BY mv.created_at DESC, mv.id DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WithMaterial
	for rows.Next() {
		var it WithMaterial
		if err := rows.Scan(
			&it.ID, &it.MaterialID, &it.Direction, &it.Quantity,
			&it.Counterparty, &it.Responsible, &it.Notes, &it.CreatedAt,
			&it.MaterialCode, &it.MaterialName,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
