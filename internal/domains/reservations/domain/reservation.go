package domain

import (
	"errors"
	"strings"
	"time"
)

// Status enumerates the reservation state machine. confirmed is the only
// non-terminal state; creation is atomic, so no pending intermediate exists.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusClaimed   Status = "claimed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

var (
	ErrEmptyPurchaseRef   = errors.New("purchase reference must not be empty")
	ErrEmptyUserID        = errors.New("user id must not be empty")
	ErrNoLines            = errors.New("reservation requires at least one line")
	ErrInvalidQuantity    = errors.New("line quantity must be greater than zero")
	ErrEmptyLineProduct   = errors.New("line product id must not be empty")
	ErrDuplicateProduct   = errors.New("reservation lines must not repeat a product")
	ErrInvalidStatus      = errors.New("reservation status is invalid")
	ErrForbiddenTransition = errors.New("reservation status transition not permitted")
)

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusClaimed, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// ConsumesStock reports whether a reservation in this status still holds
// quantities against the ledger.
func (s Status) ConsumesStock() bool {
	return s == StatusConfirmed
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusConfirmed, StatusClaimed, StatusCancelled, StatusExpired:
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}

// CanTransition reports whether the from→to edge exists in the state machine.
// Every edge leaves confirmed; terminal states have no outgoing edges.
func CanTransition(from, to Status) bool {
	if from != StatusConfirmed {
		return false
	}
	switch to {
	case StatusClaimed, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// Line is one immutable product/quantity pair within a reservation. A
// correction requires cancelling and creating a new reservation.
type Line struct {
	ProductID string
	Quantity  int64
}

// Reservation commits a user's claim on product quantities pending
// fulfillment. Created once with status confirmed; status mutates only
// through manager-mediated conditional transitions; never deleted.
type Reservation struct {
	ID                 string
	PurchaseRef        string
	UserID             string
	Lines              []Line
	Status             Status
	CancellationReason string
	OperatorID         string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ExpiresAt          time.Time
}

// NewReservation validates input and constructs a confirmed reservation with
// its TTL applied. The caller reserves stock before persisting it.
func NewReservation(id, purchaseRef, userID string, lines []Line, now time.Time, ttl time.Duration) (*Reservation, error) {
	purchaseRef = strings.TrimSpace(purchaseRef)
	userID = strings.TrimSpace(userID)
	if purchaseRef == "" {
		return nil, ErrEmptyPurchaseRef
	}
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if err := ValidateLines(lines); err != nil {
		return nil, err
	}
	copied := make([]Line, len(lines))
	copy(copied, lines)
	return &Reservation{
		ID:          id,
		PurchaseRef: purchaseRef,
		UserID:      userID,
		Lines:       copied,
		Status:      StatusConfirmed,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}, nil
}

// ValidateLines enforces the line invariants shared by creation and request
// validation: non-empty, positive quantities, no repeated product.
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return ErrEmptyLineProduct
		}
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if _, dup := seen[line.ProductID]; dup {
			return ErrDuplicateProduct
		}
		seen[line.ProductID] = struct{}{}
	}
	return nil
}

// ExpiredAt reports whether the reservation's TTL elapsed at the given time
// while it still consumes stock.
func (r *Reservation) ExpiredAt(now time.Time) bool {
	return r.Status == StatusConfirmed && r.ExpiresAt.Before(now)
}

// OwnedBy reports whether userID owns the reservation.
func (r *Reservation) OwnedBy(userID string) bool {
	return r.UserID == userID
}

// TotalQuantity sums the line quantities; used by audit reconciliation.
func (r *Reservation) TotalQuantity() int64 {
	var total int64
	for _, line := range r.Lines {
		total += line.Quantity
	}
	return total
}
