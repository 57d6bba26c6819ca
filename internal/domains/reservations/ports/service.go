package ports

import (
	"context"

	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application/types"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
)

// Service exposes the reservation manager use cases consumed by transports,
// workers, and the sweeper.
type Service interface {
	CreateReservation(ctx context.Context, input types.CreateReservationInput) (*domain.Reservation, error)
	GetReservation(ctx context.Context, id, userID string) (*domain.Reservation, error)
	ListReservations(ctx context.Context, input types.ListReservationsInput) (*types.ReservationPage, error)
	CancelReservation(ctx context.Context, id, reason string) (*domain.Reservation, error)
	ClaimReservation(ctx context.Context, id, operatorID string) (*domain.Reservation, error)
	// SweepExpired reclaims stock from confirmed reservations past their
	// TTL and returns the number of reservations released.
	SweepExpired(ctx context.Context) (int, error)
}
