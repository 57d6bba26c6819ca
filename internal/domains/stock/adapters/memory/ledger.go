package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/go-reservation-api-server/internal/domains/stock/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/stock/ports"
)

var _ ports.Ledger = (*Ledger)(nil)

// Ledger is an in-memory stock ledger. The mutex plays the role the
// datastore's row-level atomicity plays in the postgres and redis adapters:
// check-and-decrement happens under one critical section.
type Ledger struct {
	mu        sync.Mutex
	levels    map[string]*domain.Level
	movements []domain.Movement
	nextID    int64
	clock     func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{levels: map[string]*domain.Level{}, clock: time.Now}
}

// WithClock overrides the time source, used by tests.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	if clock != nil {
		l.clock = clock
	}
	return l
}

func (l *Ledger) Reserve(_ context.Context, productID string, quantity int64, reservationID string) error {
	if productID == "" {
		return domain.ErrEmptyProductID
	}
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	level, ok := l.levels[productID]
	if !ok {
		return domain.ErrUnknownProduct
	}
	if level.Available < quantity {
		return &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: level.Available}
	}
	level.Available -= quantity
	level.UpdatedAt = l.clock()
	l.appendMovement(productID, -quantity, domain.ReasonReserve, reservationID)
	return nil
}

func (l *Ledger) Release(_ context.Context, productID string, quantity int64, reservationID string, reason domain.MovementReason) error {
	if productID == "" {
		return domain.ErrEmptyProductID
	}
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	level, ok := l.levels[productID]
	if !ok {
		return domain.ErrUnknownProduct
	}
	level.Available += quantity
	level.UpdatedAt = l.clock()
	l.appendMovement(productID, quantity, reason, reservationID)
	return nil
}

func (l *Ledger) Get(_ context.Context, productID string) (*domain.Level, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	level, ok := l.levels[productID]
	if !ok {
		return nil, domain.ErrUnknownProduct
	}
	clone := *level
	return &clone, nil
}

func (l *Ledger) Provision(_ context.Context, productID string, quantity int64) (*domain.Level, error) {
	if productID == "" {
		return nil, domain.ErrEmptyProductID
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	level, ok := l.levels[productID]
	if !ok {
		level = &domain.Level{ProductID: productID}
		l.levels[productID] = level
	}
	level.Available += quantity
	level.UpdatedAt = l.clock()
	l.appendMovement(productID, quantity, domain.ReasonProvision, "")
	clone := *level
	return &clone, nil
}

func (l *Ledger) Movements(_ context.Context, productID string) ([]domain.Movement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]domain.Movement, 0)
	for i := len(l.movements) - 1; i >= 0; i-- {
		if l.movements[i].ProductID == productID {
			result = append(result, l.movements[i])
		}
	}
	return result, nil
}

func (l *Ledger) appendMovement(productID string, delta int64, reason domain.MovementReason, reservationID string) {
	l.nextID++
	l.movements = append(l.movements, domain.Movement{
		ID:            l.nextID,
		ProductID:     productID,
		Delta:         delta,
		Reason:        reason,
		ReservationID: reservationID,
		CreatedAt:     l.clock(),
	})
}
