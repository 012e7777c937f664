// Package ledger holds the failure taxonomy shared by the registry and the
// three trackers. Every stock operation either fully applies or returns one of
// these sentinels; the HTTP layer maps them onto response statuses.
package ledger

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateCode     = errors.New("material code already exists")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyReturned   = errors.New("loan already returned")
	ErrHasReferences     = errors.New("material has dependent records")
)
