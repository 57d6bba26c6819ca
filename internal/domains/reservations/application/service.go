package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	catalogports "github.com/Apurer/go-reservation-api-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application/types"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
	stockdomain "github.com/Apurer/go-reservation-api-server/internal/domains/stock/domain"
	stockports "github.com/Apurer/go-reservation-api-server/internal/domains/stock/ports"
)

const (
	// DefaultTTL bounds how long a confirmed reservation holds stock before
	// the sweeper may reclaim it.
	DefaultTTL = 30 * time.Minute
	// DefaultSweepBatchSize caps how many expired reservations one sweep
	// pass picks up.
	DefaultSweepBatchSize = 100

	defaultPageLimit = 20
	maxPageLimit     = 100
)

var _ ports.Service = (*Service)(nil)

// Service is the reservation manager: the only component that creates
// reservations or drives their status transitions. Multi-line creation is a
// saga over the ledger's single-row atomic reserve, compensated by releases
// on any failure; cancellation and expiration share one release routine so
// their semantics are identical.
type Service struct {
	repo     ports.Repository
	ledger   stockports.Ledger
	catalog  catalogports.Provider
	notifier ports.StockAlertNotifier

	ttl        time.Duration
	sweepBatch int
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
}

// Option configures the Service at construction time.
type Option func(*Service)

// WithTTL sets the reservation time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepBatchSize bounds one expiration sweep pass.
func WithSweepBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.sweepBatch = size
		}
	}
}

// WithNotifier injects the stock-exhaustion notifier.
func WithNotifier(notifier ports.StockAlertNotifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides reservation id generation, used by tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger injects a slog logger for compensation-path diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the reservation manager with its collaborators.
func NewService(repo ports.Repository, ledger stockports.Ledger, catalog catalogports.Provider, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		ledger:     ledger,
		catalog:    catalog,
		ttl:        DefaultTTL,
		sweepBatch: DefaultSweepBatchSize,
		now:        time.Now,
		newID:      uuid.NewString,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateReservation validates the request, reserves every line all-or-nothing
// against the ledger, then persists the reservation as the commit point. Any
// failure after a successful reserve releases the already-held quantities
// before the caller sees a response; no partial reservation is ever visible.
func (s *Service) CreateReservation(ctx context.Context, input types.CreateReservationInput) (*domain.Reservation, error) {
	reservation, err := domain.NewReservation(s.newID(), input.PurchaseRef, input.UserID, input.ToDomainLines(), s.now(), s.ttl)
	if err != nil {
		return nil, mapError(err)
	}

	for _, line := range reservation.Lines {
		exists, err := s.catalog.Exists(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("validate product %s: %w", line.ProductID, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: unknown product %s", ErrInvalidInput, line.ProductID)
		}
	}

	reserved := make([]domain.Line, 0, len(reservation.Lines))
	for _, line := range reservation.Lines {
		if err := s.ledger.Reserve(ctx, line.ProductID, line.Quantity, reservation.ID); err != nil {
			s.releaseLines(ctx, reservation.ID, reserved, stockdomain.ReasonReleaseCancel)
			var insufficient *stockdomain.InsufficientStockError
			if errors.As(err, &insufficient) {
				s.notifyExhausted(ctx, insufficient)
				return nil, err
			}
			if errors.Is(err, stockdomain.ErrUnknownProduct) {
				// Known to the catalog but never provisioned: to the
				// caller this is indistinguishable from zero stock.
				notProvisioned := &stockdomain.InsufficientStockError{ProductID: line.ProductID, Requested: line.Quantity, Available: 0}
				s.notifyExhausted(ctx, notProvisioned)
				return nil, notProvisioned
			}
			return nil, fmt.Errorf("reserve product %s: %w", line.ProductID, err)
		}
		reserved = append(reserved, line)
	}

	saved, err := s.repo.Create(ctx, reservation)
	if err != nil {
		// Stock was held but the commit failed; release before surfacing
		// so a retry cannot double-reserve.
		s.releaseLines(ctx, reservation.ID, reserved, stockdomain.ReasonReleaseCancel)
		return nil, fmt.Errorf("persist reservation: %w", err)
	}
	return saved, nil
}

// GetReservation returns the reservation only when userID owns it; any other
// outcome is reported as not found.
func (s *Service) GetReservation(ctx context.Context, id, userID string) (*domain.Reservation, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: id and user id are required", ErrInvalidInput)
	}
	reservation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	if !reservation.OwnedBy(userID) {
		return nil, ErrNotFound
	}
	return reservation, nil
}

// ListReservations returns one page of the user's reservations, newest first.
func (s *Service) ListReservations(ctx context.Context, input types.ListReservationsInput) (*types.ReservationPage, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.Page < 0 || input.Limit < 0 {
		return nil, fmt.Errorf("%w: page and limit must not be negative", ErrInvalidInput)
	}
	filter := ports.ListFilter{UserID: input.UserID, Page: input.Page, Limit: input.Limit}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return nil, mapError(err)
		}
		filter.Status = &status
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &types.ReservationPage{Items: items, Page: filter.Page, Limit: filter.Limit, Total: total}, nil
}

// CancelReservation moves a confirmed reservation to cancelled and returns
// its stock. The conditional transition arbitrates against racing claims and
// sweeps: only the winner releases, so release happens exactly once.
func (s *Service) CancelReservation(ctx context.Context, id, reason string) (*domain.Reservation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	updated, err := s.repo.TransitionStatus(ctx, id, domain.StatusConfirmed, domain.StatusCancelled, ports.TransitionFields{CancellationReason: strings.TrimSpace(reason)})
	if err != nil {
		return nil, mapError(err)
	}
	s.releaseLines(ctx, updated.ID, updated.Lines, stockdomain.ReasonReleaseCancel)
	return updated, nil
}

// ClaimReservation moves a confirmed reservation to claimed without touching
// stock; the held quantities convert into a fulfilled purchase.
func (s *Service) ClaimReservation(ctx context.Context, id, operatorID string) (*domain.Reservation, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(operatorID) == "" {
		return nil, fmt.Errorf("%w: id and operator id are required", ErrInvalidInput)
	}
	updated, err := s.repo.TransitionStatus(ctx, id, domain.StatusConfirmed, domain.StatusClaimed, ports.TransitionFields{OperatorID: strings.TrimSpace(operatorID)})
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// SweepExpired reclaims stock from confirmed reservations whose TTL elapsed.
// Each candidate goes through the same conditional transition and release
// routine as cancellation; a reservation claimed or cancelled between
// selection and update simply loses the race and is skipped.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	candidates, err := s.repo.FindExpired(ctx, s.now(), s.sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("find expired reservations: %w", err)
	}
	released := 0
	for _, candidate := range candidates {
		updated, err := s.repo.TransitionStatus(ctx, candidate.ID, domain.StatusConfirmed, domain.StatusExpired, ports.TransitionFields{})
		if err != nil {
			if errors.Is(err, ports.ErrStatusConflict) || errors.Is(err, ports.ErrNotFound) {
				continue
			}
			return released, fmt.Errorf("expire reservation %s: %w", candidate.ID, err)
		}
		s.releaseLines(ctx, updated.ID, updated.Lines, stockdomain.ReasonReleaseExpire)
		released++
	}
	return released, nil
}

// releaseLines is the shared compensation routine behind creation rollback,
// cancellation, and expiration. Release failures are logged and skipped: the
// movement log against reservation records is the reconciliation path for
// any resulting discrepancy.
func (s *Service) releaseLines(ctx context.Context, reservationID string, lines []domain.Line, reason stockdomain.MovementReason) {
	for _, line := range lines {
		if err := s.ledger.Release(ctx, line.ProductID, line.Quantity, reservationID, reason); err != nil {
			s.logger.Error("stock release failed, audit reconciliation required",
				slog.String("reservation.id", reservationID),
				slog.String("product.id", line.ProductID),
				slog.Int64("quantity", line.Quantity),
				slog.String("reason", string(reason)),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *Service) notifyExhausted(ctx context.Context, failure *stockdomain.InsufficientStockError) {
	if s.notifier == nil {
		return
	}
	s.notifier.StockExhausted(ctx, domain.StockExhausted{
		BaseEvent: domain.BaseEvent{Timestamp: s.now()},
		ProductID: failure.ProductID,
		Requested: failure.Requested,
		Available: failure.Available,
	})
}
