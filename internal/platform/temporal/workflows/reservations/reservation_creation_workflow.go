package reservations

import (
	"go.temporal.io/sdk/workflow"

	restypes "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application/types"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	"github.com/Apurer/go-reservation-api-server/internal/platform/temporal/sequences"
)

const (
	// ReservationCreationWorkflowName is the public identifier for registering the workflow.
	ReservationCreationWorkflowName = "reservations.workflows.Creation"
	// ReservationCreationTaskQueue is the queue consumed by the worker processing reservation workflows.
	ReservationCreationTaskQueue = "RESERVATION_CREATION"
)

// ReservationCreationWorkflowInput captures the payload required to create a reservation.
type ReservationCreationWorkflowInput struct {
	Command restypes.CreateReservationInput
	TraceID string
}

// ReservationCreationWorkflow orchestrates the activities needed to create a reservation.
func ReservationCreationWorkflow(ctx workflow.Context, input ReservationCreationWorkflowInput) (*domain.Reservation, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("ReservationCreationWorkflow started", withTraceID(input.TraceID, "purchaseRef", input.Command.PurchaseRef)...)
	reservation, err := sequences.RunReservationCreationSequence(ctx, input.Command)
	if err != nil {
		logger.Error("ReservationCreationWorkflow failed", withTraceID(input.TraceID, "purchaseRef", input.Command.PurchaseRef, "error", err)...)
		return nil, err
	}
	logger.Info("ReservationCreationWorkflow completed", withTraceID(input.TraceID, "reservationId", reservation.ID)...)
	return reservation, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
