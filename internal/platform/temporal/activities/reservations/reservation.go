package reservations

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	restypes "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application/types"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	resports "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
)

const (
	// CreateReservationActivityName runs the reserve-then-persist saga for one reservation.
	CreateReservationActivityName = "reservations.activities.CreateReservation"
)

// Activities groups activities that operate on the reservations bounded context.
type Activities struct {
	service resports.Service
}

// NewActivities wires the reservation service into the Temporal activities bundle.
func NewActivities(service resports.Service) *Activities {
	return &Activities{service: service}
}

// CreateReservation executes the creation saga. The service compensates held
// stock on any failure, so a retried attempt starts from a clean ledger.
func (a *Activities) CreateReservation(ctx context.Context, input restypes.CreateReservationInput) (*domain.Reservation, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("reservation creation activity not initialized", "purchaseRef", input.PurchaseRef)
		return nil, errors.New("reservation creation activity not initialized")
	}
	logger.Info("CreateReservation activity started", "purchaseRef", input.PurchaseRef, "userId", input.UserID)
	reservation, err := a.service.CreateReservation(ctx, input)
	if err != nil {
		logger.Error("CreateReservation activity failed", "purchaseRef", input.PurchaseRef, "error", err)
		return nil, err
	}
	logger.Info("CreateReservation activity completed", "reservationId", reservation.ID)
	return reservation, nil
}
