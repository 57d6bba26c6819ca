package ports

import (
	"context"

	"github.com/Apurer/go-reservation-api-server/internal/domains/stock/domain"
)

// Ledger is the single source of truth for available quantity per product.
//
// Reserve must be implemented as one conditional update so that no
// read-then-write window exists between concurrent callers on the same
// product: of two racing reserves whose combined quantity exceeds
// availability, exactly one fails with *domain.InsufficientStockError.
//
// Release increments unconditionally; calling it exactly once per terminated
// reservation is the caller's responsibility.
type Ledger interface {
	Reserve(ctx context.Context, productID string, quantity int64, reservationID string) error
	Release(ctx context.Context, productID string, quantity int64, reservationID string, reason domain.MovementReason) error
	// Get returns a read-only snapshot. Never use it for decisions that
	// require atomicity; it exists for display and validation pre-checks.
	Get(ctx context.Context, productID string) (*domain.Level, error)
	// Provision raises the provisioned quantity for a product, creating the
	// level row when absent.
	Provision(ctx context.Context, productID string, quantity int64) (*domain.Level, error)
	// Movements lists the append-only audit trail for a product, newest first.
	Movements(ctx context.Context, productID string) ([]domain.Movement, error)
}
