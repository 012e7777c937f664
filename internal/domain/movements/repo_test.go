package movements_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/aguaops/ptar-inventory/internal/domain/materials"
	"github.com/aguaops/ptar-inventory/internal/domain/movements"
	"github.com/aguaops/ptar-inventory/internal/ledger"
	"github.com/aguaops/ptar-inventory/internal/testutil"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func seedMaterial(t *testing.T, repo *materials.Repo, code, qty, minStock string) *materials.Material {
	t.Helper()
	m, err := repo.Register(context.Background(), code, decimal.RequireFromString(qty), materials.Attrs{
		Name:     "Material " + code,
		MinStock: decimal.RequireFromString(minStock),
	})
	if err != nil {
		t.Fatalf("seed material %s: %v", code, err)
	}
	return m
}

func TestOutboundDrainsToStatusTransitions(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()
	matRepo := materials.NewRepo(pool)
	repo := movements.NewRepo(pool, matRepo)

	m := seedMaterial(t, matRepo, "CL-001", "100", "10")

	if _, err := repo.RecordOutbound(ctx, m.ID, dec(t, "95"), "Filtro 1", "J. Rojas", ""); err != nil {
		t.Fatalf("outbound 95: %v", err)
	}
	got, err := matRepo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Quantity.Equal(dec(t, "5")) || got.Status() != materials.StatusLow {
		t.Fatalf("after outbound 95: qty=%s status=%s, expected 5/LOW", got.Quantity, got.Status())
	}

	if _, err := repo.RecordOutbound(ctx, m.ID, dec(t, "5"), "Filtro 1", "J. Rojas", ""); err != nil {
		t.Fatalf("outbound 5: %v", err)
	}
	got, err = matRepo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Quantity.IsZero() || got.Status() != materials.StatusOut {
		t.Fatalf("after outbound 5: qty=%s status=%s, expected 0/OUT", got.Quantity, got.Status())
	}

	if _, err := repo.RecordOutbound(ctx, m.ID, dec(t, "1"), "Filtro 1", "J. Rojas", ""); !errors.Is(err, ledger.ErrInsufficientStock) {
		t.Fatalf("overdraw: got %v, expected ErrInsufficientStock", err)
	}
	got, err = matRepo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Quantity.IsZero() {
		t.Fatalf("quantity changed by rejected outbound: %s", got.Quantity)
	}
}

func TestRejectedOutboundLeavesNoRecord(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()
	matRepo := materials.NewRepo(pool)
	repo := movements.NewRepo(pool, matRepo)

	m := seedMaterial(t, matRepo, "SUL-001", "3", "1")

	if _, err := repo.RecordOutbound(ctx, m.ID, dec(t, "10"), "Dosificador", "", ""); !errors.Is(err, ledger.ErrInsufficientStock) {
		t.Fatalf("got %v, expected ErrInsufficientStock", err)
	}

	movs, err := repo.List(ctx, movements.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(movs) != 0 {
		t.Fatalf("rejected outbound left %d movement records", len(movs))
	}

	if _, err := repo.RecordInbound(ctx, m.ID, dec(t, "0"), "Proveedor", "", ""); !errors.Is(err, ledger.ErrInvalidQuantity) {
		t.Fatalf("zero quantity: got %v, expected ErrInvalidQuantity", err)
	}
	if _, err := repo.RecordInbound(ctx, m.ID+1000, dec(t, "1"), "Proveedor", "", ""); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("unknown material: got %v, expected ErrNotFound", err)
	}
}

func TestListOrderAndFilters(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()
	matRepo := materials.NewRepo(pool)
	repo := movements.NewRepo(pool, matRepo)

	m := seedMaterial(t, matRepo, "CAL-001", "0", "5")

	if _, err := repo.RecordInbound(ctx, m.ID, dec(t, "50"), "Proveedor A", "almacén", ""); err != nil {
		t.Fatalf("inbound: %v", err)
	}
	if _, err := repo.RecordOutbound(ctx, m.ID, dec(t, "20"), "Clarificador", "turno B", ""); err != nil {
		t.Fatalf("outbound: %v", err)
	}

	all, err := repo.List(ctx, movements.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List returned %d movements, expected 2", len(all))
	}
	// Newest first.
	if all[0].Direction != movements.DirOut || all[1].Direction != movements.DirIn {
		t.Fatalf("order: got %s then %s, expected OUT then IN", all[0].Direction, all[1].Direction)
	}
	if all[0].MaterialCode != "CAL-001" {
		t.Fatalf("joined material code = %q", all[0].MaterialCode)
	}

	in, err := repo.List(ctx, movements.Filter{Direction: movements.DirIn})
	if err != nil {
		t.Fatalf("List IN: %v", err)
	}
	if len(in) != 1 || !in[0].Quantity.Equal(dec(t, "50")) {
		t.Fatalf("IN filter returned %+v", in)
	}

	// Repeated reads with no writes in between return the same result.
	again, err := repo.List(ctx, movements.Filter{})
	if err != nil {
		t.Fatalf("List again: %v", err)
	}
	if len(again) != len(all) || again[0].ID != all[0].ID || again[1].ID != all[1].ID {
		t.Fatalf("repeated List diverged: %+v vs %+v", again, all)
	}
}

// Two concurrent outbounds against the same stale balance must not jointly
// overdraw: the per-material row lock serializes them.
func TestConcurrentOutboundCannotOverdraw(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()
	matRepo := materials.NewRepo(pool)
	repo := movements.NewRepo(pool, matRepo)

	m := seedMaterial(t, matRepo, "EMP-001", "5", "0")

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.RecordOutbound(ctx, m.ID, dec(t, "1"), "Mantenimiento", "", "")
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ledger.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 5 || rejected != 5 {
		t.Fatalf("ok=%d rejected=%d, expected 5/5", ok, rejected)
	}

	got, err := matRepo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Quantity.IsZero() {
		t.Fatalf("final quantity = %s, expected 0", got.Quantity)
	}

	movs, err := repo.List(ctx, movements.Filter{Direction: movements.DirOut})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(movs) != 5 {
		t.Fatalf("recorded %d outbound movements, expected 5", len(movs))
	}
}
