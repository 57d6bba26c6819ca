package ports

import (
	"context"

	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application/types"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
)

// WorkflowOrchestrator exposes durable workflow operations for the
// reservations bounded context.
type WorkflowOrchestrator interface {
	CreateReservation(ctx context.Context, input types.CreateReservationInput) (*domain.Reservation, error)
}
