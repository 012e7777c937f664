package loans

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
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

func (r *Repo) Open(ctx context.Context, materialID int64, qty decimal.Decimal, borrower, area, notes string) (*Loan, error) {
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

	var l Loan
	if err := tx.QueryRow(ctx, `
		INSERT INTO loans (material_id, quantity, borrower, area, notes)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, material_id, quantity, borrower, area, notes, loaned_at, returned_at
	`, materialID, qty, borrower, area, notes).Scan(
		&l.ID, &l.MaterialID, &l.Quantity, &l.Borrower, &l.Area, &l.Notes, &l.LoanedAt, &l.ReturnedAt,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &l, nil
}

// Return closes an open loan and restores its quantity. The loan row is
// locked first so a concurrent second return observes the terminal state and
// fails instead of restoring stock twice.
func (r *Repo) Return(ctx context.Context, id int64) (*Loan, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var l Loan
	err = tx.QueryRow(ctx, `
		SELECT id, material_id, quantity, borrower, area, notes, loaned_at, returned_at
		FROM loans WHERE id=$1
		FOR UPDATE
	`, id).Scan(&l.ID, &l.MaterialID, &l.Quantity, &l.Borrower, &l.Area, &l.Notes, &l.LoanedAt, &l.ReturnedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if l.ReturnedAt != nil {
		return nil, ledger.ErrAlreadyReturned
	}

	if _, err := r.materials.AdjustQuantity(ctx, tx, l.MaterialID, l.Quantity); err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `
		UPDATE loans SET returned_at = now() WHERE id=$1
		RETURNING returned_at
	`, id).Scan(&l.ReturnedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repo) List(ctx context.Context, status Status) ([]WithMaterial, error) {
	q := `
		SELECT l.id, l.material_id, l.quantity, l.borrower, l.area, l.notes, l.loaned_at, l.returned_at,
		       m.code, m.name
		FROM loans l
		JOIN materials m ON m.id = l.material_id`
	switch status {
	case StatusOpen:
		q += " WHERE l.returned_at IS NULL"
	case StatusReturned:
		q += " WHERE l.returned_at IS NOT NULL"
	}
	q += " ORDER BY l.loaned_at DESC, l.id DESC"

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WithMaterial
	for rows.Next() {
		var it WithMaterial
		if err := rows.Scan(
			&it.ID, &it.MaterialID, &it.Quantity, &it.Borrower, &it.Area, &it.Notes,
			&it.LoanedAt, &it.ReturnedAt, &it.MaterialCode, &it.MaterialName,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
