package materials

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOK  Status = "OK"
	StatusLow Status = "LOW"
	StatusOut Status = "OUT"
)

type Material struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinStock    decimal.Decimal `json:"min_stock"`
	Location    string          `json:"location"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Notes       string          `json:"notes"`
	ImagePath   string          `json:"image_path"`
	CreatedAt   time.Time       `json:"created_at"`
}

// StatusOf derives the stock status: OUT at zero, LOW while the quantity is
// positive but at or below the minimum threshold.
func StatusOf(qty, minStock decimal.Decimal) Status {
	switch {
	case qty.IsZero():
		return StatusOut
	case qty.LessThanOrEqual(minStock):
		return StatusLow
	default:
		return StatusOK
	}
}

func (m *Material) Status() Status { return StatusOf(m.Quantity, m.MinStock) }

// Attrs are the editable material attributes. Quantity is absent on purpose:
// after registration it changes only through AdjustQuantity.
type Attrs struct {
	Name        string
	Description string
	Category    string
	Unit        string
	MinStock    decimal.Decimal
	Location    string
	UnitCost    decimal.Decimal
	Notes       string
	ImagePath   string
}

type Filter struct {
	Category   string
	Location   string
	Status     Status
	SearchText string
}
