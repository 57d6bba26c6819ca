package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
)

var _ ports.StockAlertNotifier = (*Notifier)(nil)

// Notifier records stock-exhaustion events in memory. Tests assert against
// Events(); dev deployments without a broker use it as a silent sink.
type Notifier struct {
	mu     sync.Mutex
	events []domain.StockExhausted
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) StockExhausted(_ context.Context, event domain.StockExhausted) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// Events returns a snapshot of the recorded events.
func (n *Notifier) Events() []domain.StockExhausted {
	n.mu.Lock()
	defer n.mu.Unlock()
	snapshot := make([]domain.StockExhausted, len(n.events))
	copy(snapshot, n.events)
	return snapshot
}
