package loans

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusReturned Status = "RETURNED"
)

// Loan is a temporary removal of stock. While ReturnedAt is nil the quantity
// stays checked out of the material's balance.
type Loan struct {
	ID         int64           `json:"id"`
	MaterialID int64           `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Borrower   string          `json:"borrower"`
	Area       string          `json:"area"`
	Notes      string          `json:"notes"`
	LoanedAt   time.Time       `json:"loaned_at"`
	ReturnedAt *time.Time      `json:"returned_at,omitempty"`
}

func (l *Loan) Status() Status {
	if l.ReturnedAt == nil {
		return StatusOpen
	}
	return StatusReturned
}

type WithMaterial struct {
	Loan
	MaterialCode string `json:"material_code"`
	MaterialName string `json:"material_name"`
}
