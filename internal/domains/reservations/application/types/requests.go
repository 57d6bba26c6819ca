// Package types holds the validated request/response schemas exchanged
// between transports, orchestrators, and the reservations application layer.
package types

import (
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
)

// LineInput is one requested product/quantity pair.
type LineInput struct {
	ProductID string
	Quantity  int64
}

// CreateReservationInput captures a creation request.
type CreateReservationInput struct {
	PurchaseRef string
	UserID      string
	Lines       []LineInput
}

// ToDomainLines converts the request lines to domain lines.
func (in CreateReservationInput) ToDomainLines() []domain.Line {
	lines := make([]domain.Line, 0, len(in.Lines))
	for _, line := range in.Lines {
		lines = append(lines, domain.Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return lines
}

// ListReservationsInput captures an owner-scoped listing request. Status is
// optional; empty means all statuses. Page is 1-based.
type ListReservationsInput struct {
	UserID string
	Status string
	Page   int
	Limit  int
}

// ReservationPage is one stable-ordered page of a user's reservations.
type ReservationPage struct {
	Items []*domain.Reservation
	Page  int
	Limit int
	Total int64
}
