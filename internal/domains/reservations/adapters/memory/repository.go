package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory reservation store. The mutex stands in for the
// datastore's row-level atomicity: TransitionStatus checks and writes under
// one critical section, matching the postgres adapter's conditional UPDATE.
type Repository struct {
	mu           sync.Mutex
	reservations map[string]*storedReservation
	seq          int64
	clock        func() time.Time
}

type storedReservation struct {
	reservation domain.Reservation
	seq         int64
}

func NewRepository() *Repository {
	return &Repository{reservations: map[string]*storedReservation{}, clock: time.Now}
}

// WithClock overrides the time source, used by tests.
func (r *Repository) WithClock(clock func() time.Time) *Repository {
	if clock != nil {
		r.clock = clock
	}
	return r
}

func (r *Repository) Create(_ context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	if reservation == nil {
		return nil, errors.New("reservation is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.reservations[reservation.ID]; exists {
		return nil, errors.New("reservation id already exists")
	}
	r.seq++
	clone := cloneReservation(reservation)
	r.reservations[reservation.ID] = &storedReservation{reservation: *clone, seq: r.seq}
	return cloneReservation(clone), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.reservations[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneReservation(&stored.reservation), nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]*domain.Reservation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]*storedReservation, 0)
	for _, stored := range r.reservations {
		if stored.reservation.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && stored.reservation.Status != *filter.Status {
			continue
		}
		matches = append(matches, stored)
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.reservation.CreatedAt.Equal(b.reservation.CreatedAt) {
			return a.reservation.CreatedAt.After(b.reservation.CreatedAt)
		}
		return a.seq > b.seq
	})
	total := int64(len(matches))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matches) {
		return []*domain.Reservation{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matches) {
		end = len(matches)
	}
	page := make([]*domain.Reservation, 0, end-start)
	for _, stored := range matches[start:end] {
		page = append(page, cloneReservation(&stored.reservation))
	}
	return page, total, nil
}

func (r *Repository) TransitionStatus(_ context.Context, id string, from, to domain.Status, fields ports.TransitionFields) (*domain.Reservation, error) {
	if !domain.CanTransition(from, to) {
		return nil, ports.ErrStatusConflict
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.reservations[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if stored.reservation.Status != from {
		return nil, ports.ErrStatusConflict
	}
	stored.reservation.Status = to
	stored.reservation.UpdatedAt = r.clock()
	if fields.CancellationReason != "" {
		stored.reservation.CancellationReason = fields.CancellationReason
	}
	if fields.OperatorID != "" {
		stored.reservation.OperatorID = fields.OperatorID
	}
	return cloneReservation(&stored.reservation), nil
}

func (r *Repository) FindExpired(_ context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expired := make([]*domain.Reservation, 0)
	for _, stored := range r.reservations {
		if stored.reservation.ExpiredAt(now) {
			expired = append(expired, cloneReservation(&stored.reservation))
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func cloneReservation(reservation *domain.Reservation) *domain.Reservation {
	clone := *reservation
	clone.Lines = make([]domain.Line, len(reservation.Lines))
	copy(clone.Lines, reservation.Lines)
	return &clone
}
