package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	restypes "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application/types"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
	resworkflows "github.com/Apurer/go-reservation-api-server/internal/platform/temporal/workflows/reservations"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalReservationWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineReservationWorkflows)(nil)
)

// TemporalReservationWorkflows starts reservation workflows on a Temporal cluster.
type TemporalReservationWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalReservationWorkflows wires a Temporal client into the orchestrator.
func NewTemporalReservationWorkflows(c client.Client) *TemporalReservationWorkflows {
	return &TemporalReservationWorkflows{client: c, taskQueue: resworkflows.ReservationCreationTaskQueue}
}

// CreateReservation starts the Temporal workflow that runs the creation saga.
// The workflow ID is derived from the purchase reference, so a retried request
// for the same purchase attaches to the in-flight run instead of reserving
// stock twice.
func (o *TemporalReservationWorkflows) CreateReservation(ctx context.Context, input restypes.CreateReservationInput) (*domain.Reservation, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal reservation workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildReservationCreationWorkflowID(input)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		resworkflows.ReservationCreationWorkflow,
		resworkflows.ReservationCreationWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var reservation domain.Reservation
			if err := existingRun.Get(ctx, &reservation); err != nil {
				return nil, err
			}
			return &reservation, nil
		}
		return nil, err
	}
	var reservation domain.Reservation
	if err := run.Get(ctx, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// InlineReservationWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineReservationWorkflows struct {
	service ports.Service
}

// NewInlineReservationWorkflows wraps the reservation service for synchronous execution.
func NewInlineReservationWorkflows(service ports.Service) *InlineReservationWorkflows {
	return &InlineReservationWorkflows{service: service}
}

// CreateReservation delegates to the application service without durable orchestration.
func (o *InlineReservationWorkflows) CreateReservation(ctx context.Context, input restypes.CreateReservationInput) (*domain.Reservation, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline reservation workflows not configured")
	}
	return o.service.CreateReservation(ctx, input)
}

func buildReservationCreationWorkflowID(input restypes.CreateReservationInput) string {
	sum := sha256.Sum256([]byte(input.UserID + "|" + input.PurchaseRef))
	// First 16 hex chars keep workflow IDs readable while remaining deterministic.
	return fmt.Sprintf("reservation-creation-%s", hex.EncodeToString(sum[:8]))
}

func workflowTraceComponent(ctx context.Context) string {
	traceComponent := workflowTraceID(ctx)
	if traceComponent != "" {
		return traceComponent
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
