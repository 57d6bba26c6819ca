package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
)

// DefaultSweepInterval is the fallback cadence between sweep passes.
const DefaultSweepInterval = time.Minute

// Sweeper periodically drives Service.SweepExpired. Multiple instances may
// run against one datastore: every individual transition is conditional, so
// concurrent sweeps arbitrate per reservation and losers observe no-ops.
type Sweeper struct {
	service  ports.Service
	interval time.Duration
	logger   *slog.Logger
}

// SweeperOption configures the Sweeper at construction time.
type SweeperOption func(*Sweeper)

// WithSweepInterval sets the cadence between passes.
func WithSweepInterval(interval time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithSweeperLogger injects a slog logger.
func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSweeper wires a sweeper around the reservation service.
func NewSweeper(service ports.Service, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{service: service, interval: DefaultSweepInterval, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run sweeps on the configured cadence until ctx is cancelled. Sweep errors
// are logged, never fatal: the next tick retries from a fresh selection.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Info("expiration sweeper started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiration sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass and logs the outcome.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	released, err := s.service.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("expiration sweep failed", slog.String("error", err.Error()))
		return
	}
	if released > 0 {
		s.logger.Info("expired reservations released", slog.Int("count", released))
	}
}
