package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	restypes "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application/types"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	resactivities "github.com/Apurer/go-reservation-api-server/internal/platform/temporal/activities/reservations"
)

// RunReservationCreationSequence executes the activities needed to create a
// reservation. The creation activity is internally compensating, so retries
// always start from a released ledger; insufficient-stock failures are
// terminal and never retried.
func RunReservationCreationSequence(ctx workflow.Context, input restypes.CreateReservationInput) (*domain.Reservation, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("reservation creation sequence started", "purchaseRef", input.PurchaseRef)
	createOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
			NonRetryableErrorTypes: []string{
				"InsufficientStockError",
			},
		},
	}

	var reservation domain.Reservation
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, createOptions), resactivities.CreateReservationActivityName, input).Get(ctx, &reservation)
	if err != nil {
		logger.Error("reservation creation sequence failed", "purchaseRef", input.PurchaseRef, "error", err)
		return nil, err
	}
	logger.Info("reservation creation sequence completed", "reservationId", reservation.ID)
	return &reservation, nil
}
