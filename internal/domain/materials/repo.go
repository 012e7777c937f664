package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/aguaops/ptar-inventory/internal/ledger"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const cols = `id, code, name, description, category, unit, quantity, min_stock, location, unit_cost, notes, image_path, created_at`

func scanMaterial(row pgx.Row) (*Material, error) {
	var m Material
	if err := row.Scan(
		&m.ID,
		&m.Code,
		&m.Name,
		&m.Description,
		&m.Category,
		&m.Unit,
		&m.Quantity,
		&m.MinStock,
		&m.Location,
		&m.UnitCost,
		&m.Notes,
		&m.ImagePath,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) Register(ctx context.Context, code string, initial decimal.Decimal, attrs Attrs) (*Material, error) {
	if initial.IsNegative() {
		return nil, ledger.ErrInvalidQuantity
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO materials (code, name, description, category, unit, quantity, min_stock, location, unit_cost, notes, image_path)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING `+cols,
		code, attrs.Name, attrs.Description, attrs.Category, attrs.Unit,
		initial, attrs.MinStock, attrs.Location, attrs.UnitCost, attrs.Notes, attrs.ImagePath,
	)
	m, err := scanMaterial(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ledger.ErrDuplicateCode
		}
		return nil, err
	}
	return m, nil
}

// Update edits descriptive attributes only. Code and quantity are not
// touchable here: the code is the immutable business key, the quantity is a
// ledger balance.
func (r *Repo) Update(ctx context.Context, id int64, attrs Attrs) (*Material, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE materials
		SET name=$2, description=$3, category=$4, unit=$5, min_stock=$6, location=$7, unit_cost=$8, notes=$9, image_path=$10
		WHERE id=$1
		RETURNING `+cols,
		id, attrs.Name, attrs.Description, attrs.Category, attrs.Unit,
		attrs.MinStock, attrs.Location, attrs.UnitCost, attrs.Notes, attrs.ImagePath,
	)
	m, err := scanMaterial(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a material that no movement, open loan or allocation still
// references. Loans already returned do not block removal and are dropped
// together with the material.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var movs, openLoans, allocs int64
	if err := tx.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM movements WHERE material_id=$1),
			(SELECT COUNT(*) FROM loans WHERE material_id=$1 AND returned_at IS NULL),
			(SELECT COUNT(*) FROM in_use WHERE material_id=$1)
	`, id).Scan(&movs, &openLoans, &allocs); err != nil {
		return err
	}
	if movs+openLoans+allocs > 0 {
		return ledger.ErrHasReferences
	}

	if _, err := tx.Exec(ctx, `DELETE FROM loans WHERE material_id=$1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM materials WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Material, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cols+` FROM materials WHERE id=$1`, id)
	m, err := scanMaterial(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Material, error) {
	q := `SELECT ` + cols + ` FROM materials WHERE 1=1`
	var args []any

	if f.Category != "" {
		args = append(args, f.Category)
		q += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Location != "" {
		args = append(args, f.Location)
		q += fmt.Sprintf(" AND location = $%d", len(args))
	}
	if s := strings.TrimSpace(f.SearchText); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		q += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d OR LOWER(description) LIKE $%d)",
			len(args), len(args), len(args))
	}
	switch f.Status {
	case StatusOut:
		q += " AND quantity = 0"
	case StatusLow:
		q += " AND quantity > 0 AND quantity <= min_stock"
	case StatusOK:
		q += " AND quantity > min_stock"
	}
	q += " ORDER BY name"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// ListBelowMinimum returns materials at or under their minimum threshold,
// out-of-stock included. Feeds the low-stock report.
func (r *Repo) ListBelowMinimum(ctx context.Context) ([]Material, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+cols+` FROM materials
		WHERE quantity <= min_stock
		ORDER BY quantity, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// AdjustQuantity applies delta to a material's balance inside the caller's
// transaction and returns the new quantity. It is the single write path for
// the quantity column: the trackers call it right before appending their own
// record, so the row lock taken by the UPDATE serializes concurrent writers
// on the same material, and the guard predicate keeps the balance
// non-negative.
func (r *Repo) AdjustQuantity(ctx context.Context, tx pgx.Tx, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := tx.QueryRow(ctx, `
		UPDATE materials SET quantity = quantity + $2
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING quantity
	`, id, delta).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		// No row matched: either the material does not exist or the guard
		// rejected the decrease. Probe to tell the two apart.
		var exists bool
		if probeErr := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM materials WHERE id=$1)`, id).Scan(&exists); probeErr != nil {
			return decimal.Decimal{}, probeErr
		}
		if !exists {
			return decimal.Decimal{}, ledger.ErrNotFound
		}
		return decimal.Decimal{}, ledger.ErrInsufficientStock
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	return qty, nil
}
