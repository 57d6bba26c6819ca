package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application/types"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
	stockdomain "github.com/Apurer/go-reservation-api-server/internal/domains/stock/domain"
)

const tracerName = "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/observability/service"

var _ ports.Service = (*Service)(nil)

// Service decorates the reservation manager with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core reservation service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// CreateReservation runs the creation saga with instrumentation.
func (s *Service) CreateReservation(ctx context.Context, input types.CreateReservationInput) (*domain.Reservation, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateReservation",
		attribute.String("reservation.user_id", input.UserID),
		attribute.Int("reservation.line_count", len(input.Lines)),
	)
	defer span.End()

	s.logInfo(ctx, "creating reservation", slog.String("user.id", input.UserID), slog.Int("lines", len(input.Lines)))
	result, err := s.inner.CreateReservation(ctx, input)
	if err != nil {
		var insufficient *stockdomain.InsufficientStockError
		if errors.As(err, &insufficient) {
			s.metrics.recordRejected(ctx, insufficient.ProductID)
			span.SetAttributes(
				attribute.String("stock.product_id", insufficient.ProductID),
				attribute.Int64("stock.requested", insufficient.Requested),
				attribute.Int64("stock.available", insufficient.Available),
			)
		}
		return nil, s.handleError(ctx, span, err, "failed to create reservation", slog.String("user.id", input.UserID))
	}
	if result != nil {
		s.metrics.recordCreated(ctx)
		span.SetAttributes(attribute.String("reservation.id", result.ID))
		s.logInfo(ctx, "reservation confirmed",
			slog.String("reservation.id", result.ID),
			slog.String("user.id", result.UserID),
			slog.Time("expires.at", result.ExpiresAt),
		)
	}
	return result, nil
}

// GetReservation loads one owner-scoped reservation.
func (s *Service) GetReservation(ctx context.Context, id, userID string) (*domain.Reservation, error) {
	ctx, span := s.startSpan(ctx, "Service.GetReservation", attribute.String("reservation.id", id))
	defer span.End()

	result, err := s.inner.GetReservation(ctx, id, userID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to get reservation", slog.String("reservation.id", id))
	}
	return result, nil
}

// ListReservations returns one page of the user's reservations.
func (s *Service) ListReservations(ctx context.Context, input types.ListReservationsInput) (*types.ReservationPage, error) {
	ctx, span := s.startSpan(ctx, "Service.ListReservations",
		attribute.String("reservation.user_id", input.UserID),
		attribute.Int("page", input.Page),
	)
	defer span.End()

	result, err := s.inner.ListReservations(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list reservations", slog.String("user.id", input.UserID))
	}
	if result != nil {
		span.SetAttributes(attribute.Int("reservation.result.count", len(result.Items)))
	}
	return result, nil
}

// CancelReservation cancels and releases with instrumentation.
func (s *Service) CancelReservation(ctx context.Context, id, reason string) (*domain.Reservation, error) {
	ctx, span := s.startSpan(ctx, "Service.CancelReservation", attribute.String("reservation.id", id))
	defer span.End()

	s.logInfo(ctx, "cancelling reservation", slog.String("reservation.id", id))
	result, err := s.inner.CancelReservation(ctx, id, reason)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to cancel reservation", slog.String("reservation.id", id))
	}
	if result != nil {
		s.metrics.recordTerminated(ctx, result.Status)
		s.logInfo(ctx, "reservation cancelled",
			slog.String("reservation.id", result.ID),
			slog.Int64("released.quantity", result.TotalQuantity()),
		)
	}
	return result, nil
}

// ClaimReservation claims with instrumentation.
func (s *Service) ClaimReservation(ctx context.Context, id, operatorID string) (*domain.Reservation, error) {
	ctx, span := s.startSpan(ctx, "Service.ClaimReservation",
		attribute.String("reservation.id", id),
		attribute.String("operator.id", operatorID),
	)
	defer span.End()

	s.logInfo(ctx, "claiming reservation", slog.String("reservation.id", id))
	result, err := s.inner.ClaimReservation(ctx, id, operatorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to claim reservation", slog.String("reservation.id", id))
	}
	if result != nil {
		s.metrics.recordTerminated(ctx, result.Status)
		s.logInfo(ctx, "reservation claimed", slog.String("reservation.id", result.ID), slog.String("operator.id", operatorID))
	}
	return result, nil
}

// SweepExpired reclaims expired reservations with instrumentation.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	ctx, span := s.startSpan(ctx, "Service.SweepExpired")
	defer span.End()

	released, err := s.inner.SweepExpired(ctx)
	if err != nil {
		return released, s.handleError(ctx, span, err, "expiration sweep failed")
	}
	span.SetAttributes(attribute.Int("reservation.swept", released))
	if released > 0 {
		s.metrics.recordSwept(ctx, released)
		s.logInfo(ctx, "expired reservations swept", slog.Int("count", released))
	}
	return released, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	created    metric.Int64Counter
	terminated metric.Int64Counter
	rejected   metric.Int64Counter
	swept      metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("reservations.service.created", metric.WithDescription("Number of reservations confirmed"))
	terminated, _ := m.Int64Counter("reservations.service.terminated", metric.WithDescription("Number of reservations reaching a terminal state"))
	rejected, _ := m.Int64Counter("reservations.service.insufficient_stock", metric.WithDescription("Number of creations rejected for lack of stock"))
	swept, _ := m.Int64Counter("reservations.service.swept", metric.WithDescription("Number of reservations expired by the sweeper"))
	return serviceMetrics{created: created, terminated: terminated, rejected: rejected, swept: swept}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	addCounter(ctx, m.created, 1)
}

func (m serviceMetrics) recordTerminated(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.terminated, 1, attribute.String("reservation.status", string(status)))
}

func (m serviceMetrics) recordRejected(ctx context.Context, productID string) {
	addCounter(ctx, m.rejected, 1, attribute.String("product.id", productID))
}

func (m serviceMetrics) recordSwept(ctx context.Context, count int) {
	addCounter(ctx, m.swept, int64(count))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}
