package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
)

var (
	ErrNotFound = errors.New("reservation not found")
	// ErrStatusConflict reports a lost conditional transition: the row no
	// longer held the expected status when the update ran. This is correct
	// arbitration between racing operations, not a storage failure.
	ErrStatusConflict = errors.New("reservation status changed concurrently")
)

// ListFilter scopes a reservation listing. Status nil means all statuses.
type ListFilter struct {
	UserID string
	Status *domain.Status
	Page   int
	Limit  int
}

// TransitionFields carries the optional columns written together with a
// status transition.
type TransitionFields struct {
	CancellationReason string
	OperatorID         string
}

// Repository persists reservations and their lines. It holds no business
// logic; the manager is the only caller of TransitionStatus.
type Repository interface {
	// Create persists a new reservation with its lines. This write is the
	// commit point of reservation creation.
	Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)

	// GetByID loads a reservation regardless of owner; owner filtering is
	// the manager's concern.
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)

	// List returns the filtered reservations ordered by creation time
	// descending (id descending as tiebreak) plus the unpaged total.
	List(ctx context.Context, filter ListFilter) ([]*domain.Reservation, int64, error)

	// TransitionStatus applies a conditional update: the row moves from
	// `from` to `to` only if it still holds `from` at write time. Returns
	// ErrStatusConflict when the condition fails and ErrNotFound when the
	// id is unknown.
	TransitionStatus(ctx context.Context, id string, from, to domain.Status, fields TransitionFields) (*domain.Reservation, error)

	// FindExpired returns up to limit confirmed reservations whose
	// expiresAt precedes now, oldest first.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error)
}
