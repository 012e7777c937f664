package materials_test

import (
	"context"
	"errors"
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

func TestRegisterAndDuplicateCode(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()
	repo := materials.NewRepo(pool)

	m, err := repo.Register(ctx, "CL-001", dec(t, "100"), materials.Attrs{
		Name:     "Cloro granulado",
		Category: "Químicos",
		Unit:     "kg",
		MinStock: dec(t, "10"),
		UnitCost: dec(t, "4.20"),
		Location: "Bodega A",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !m.Quantity.Equal(dec(t, "100")) {
		t.Fatalf("initial quantity = %s, expected 100", m.Quantity)
	}
	if m.Status() != materials.StatusOK {
		t.Fatalf("status = %s, expected OK", m.Status())
	}

	if _, err := repo.Register(ctx, "CL-001", decimal.Zero, materials.Attrs{Name: "Duplicado"}); !errors.Is(err, ledger.ErrDuplicateCode) {
		t.Fatalf("duplicate code: got %v, expected ErrDuplicateCode", err)
	}

	if _, err := repo.Register(ctx, "CL-002", dec(t, "-1"), materials.Attrs{Name: "Negativo"}); !errors.Is(err, ledger.ErrInvalidQuantity) {
		t.Fatalf("negative initial: got %v, expected ErrInvalidQuantity", err)
	}

	got, err := repo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Code != "CL-001" || got.Name != "Cloro granulado" {
		t.Fatalf("GetByID returned %+v", got)
	}

	if _, err := repo.GetByID(ctx, m.ID+1000); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("unknown id: got %v, expected ErrNotFound", err)
	}
}

func TestUpdateDoesNotTouchQuantity(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()
	repo := materials.NewRepo(pool)

	m, err := repo.Register(ctx, "PHM-001", dec(t, "30"), materials.Attrs{Name: "Medidor pH", MinStock: dec(t, "1")})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	updated, err := repo.Update(ctx, m.ID, materials.Attrs{
		Name:     "Medidor pH digital",
		Location: "Laboratorio",
		MinStock: dec(t, "2"),
		UnitCost: dec(t, "150"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Medidor pH digital" || updated.Location != "Laboratorio" {
		t.Fatalf("Update returned %+v", updated)
	}
	if !updated.Quantity.Equal(dec(t, "30")) {
		t.Fatalf("quantity changed by Update: %s", updated.Quantity)
	}

	if _, err := repo.Update(ctx, m.ID+1000, materials.Attrs{Name: "x"}); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("update unknown id: got %v, expected ErrNotFound", err)
	}
}

func TestDeleteReferenceGuard(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()
	repo := materials.NewRepo(pool)
	movRepo := movements.NewRepo(pool, repo)

	m, err := repo.Register(ctx, "TUB-001", dec(t, "0"), materials.Attrs{Name: "Tubería PVC"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := movRepo.RecordInbound(ctx, m.ID, dec(t, "5"), "Proveedor", "almacén", ""); err != nil {
		t.Fatalf("RecordInbound: %v", err)
	}

	if err := repo.Delete(ctx, m.ID); !errors.Is(err, ledger.ErrHasReferences) {
		t.Fatalf("delete with movements: got %v, expected ErrHasReferences", err)
	}

	clean, err := repo.Register(ctx, "TUB-002", dec(t, "1"), materials.Attrs{Name: "Codo PVC"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := repo.Delete(ctx, clean.ID); err != nil {
		t.Fatalf("delete clean material: %v", err)
	}
	if _, err := repo.GetByID(ctx, clean.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("material still present after delete")
	}

	if err := repo.Delete(ctx, clean.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("delete unknown id: got %v, expected ErrNotFound", err)
	}
}

func TestListFilters(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()
	repo := materials.NewRepo(pool)

	seed := []struct {
		code, name, category, location string
		qty, minStock                  string
	}{
		{"CL-001", "Cloro granulado", "Químicos", "Bodega A", "100", "10"},
		{"CL-002", "Sulfato de aluminio", "Químicos", "Bodega A", "5", "10"},
		{"VLV-001", "Válvula 2in", "Repuestos", "Bodega B", "0", "2"},
	}
	for _, s := range seed {
		if _, err := repo.Register(ctx, s.code, dec(t, s.qty), materials.Attrs{
			Name: s.name, Category: s.category, Location: s.location, MinStock: dec(t, s.minStock),
		}); err != nil {
			t.Fatalf("Register %s: %v", s.code, err)
		}
	}

	byCategory, err := repo.List(ctx, materials.Filter{Category: "Químicos"})
	if err != nil {
		t.Fatalf("List by category: %v", err)
	}
	if len(byCategory) != 2 {
		t.Fatalf("category filter returned %d materials, expected 2", len(byCategory))
	}

	low, err := repo.List(ctx, materials.Filter{Status: materials.StatusLow})
	if err != nil {
		t.Fatalf("List LOW: %v", err)
	}
	if len(low) != 1 || low[0].Code != "CL-002" {
		t.Fatalf("LOW filter returned %+v", low)
	}

	out, err := repo.List(ctx, materials.Filter{Status: materials.StatusOut})
	if err != nil {
		t.Fatalf("List OUT: %v", err)
	}
	if len(out) != 1 || out[0].Code != "VLV-001" {
		t.Fatalf("OUT filter returned %+v", out)
	}

	search, err := repo.List(ctx, materials.Filter{SearchText: "válv"})
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if len(search) != 1 || search[0].Code != "VLV-001" {
		t.Fatalf("search returned %+v", search)
	}

	below, err := repo.ListBelowMinimum(ctx)
	if err != nil {
		t.Fatalf("ListBelowMinimum: %v", err)
	}
	if len(below) != 2 {
		t.Fatalf("ListBelowMinimum returned %d, expected 2 (LOW + OUT)", len(below))
	}
}
