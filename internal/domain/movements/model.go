package movements

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirIn  Direction = "IN"
	DirOut Direction = "OUT"
)

// Movement is an immutable inbound/outbound stock change. Corrections are new
// offsetting movements, never edits.
type Movement struct {
	ID         int64           `json:"id"`
	MaterialID int64           `json:"material_id"`
	Direction  Direction       `json:"direction"`
	Quantity   decimal.Decimal `json:"quantity"`
	// Counterparty is the source for IN and the destination for OUT.
	Counterparty string    `json:"counterparty"`
	Responsible  string    `json:"responsible"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}

type WithMaterial struct {
	Movement
	MaterialCode string `json:"material_code"`
	MaterialName string `json:"material_name"`
}

type Filter struct {
	Direction Direction
	From      *time.Time
	To        *time.Time
}
