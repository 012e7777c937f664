package inuse

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation is stock installed into equipment. There is no return path:
// allocated quantity is consumed for good.
type Allocation struct {
	ID          int64           `json:"id"`
	MaterialID  int64           `json:"material_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Equipment   string          `json:"equipment"`
	Responsible string          `json:"responsible"`
	Notes       string          `json:"notes"`
	InstalledAt time.Time       `json:"installed_at"`
}

type WithMaterial struct {
	Allocation
	MaterialCode string `json:"material_code"`
	MaterialName string `json:"material_name"`
}
