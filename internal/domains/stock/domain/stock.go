package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmptyProductID    = errors.New("product id must not be empty")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrUnknownProduct    = errors.New("product has no provisioned stock")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Level is the authoritative available quantity for one product.
type Level struct {
	ProductID string
	Available int64
	UpdatedAt time.Time
}

// InsufficientStockError reports a failed conditional reserve with the
// quantities the client needs for display.
type InsufficientStockError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// Is lets callers match the typed error against the ErrInsufficientStock sentinel.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// MovementReason classifies ledger mutations in the audit trail.
type MovementReason string

const (
	ReasonReserve       MovementReason = "reserve"
	ReasonReleaseCancel MovementReason = "release-cancel"
	ReasonReleaseExpire MovementReason = "release-expire"
	ReasonProvision     MovementReason = "provision"
)

// Movement is one append-only audit entry written alongside a ledger mutation.
// Entries are never updated or deleted; reconciling them against reservation
// records is the recovery path for crashes between a reserve and its
// compensating release.
type Movement struct {
	ID            int64
	ProductID     string
	Delta         int64
	Reason        MovementReason
	ReservationID string
	CreatedAt     time.Time
}
