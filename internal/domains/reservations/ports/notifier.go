package ports

import (
	"context"

	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
)

// StockAlertNotifier receives stock-exhaustion events fire-and-forget.
// Implementations must never block the reservation path: deliver
// asynchronously or under a short bounded timeout, and swallow delivery
// failures after logging them.
type StockAlertNotifier interface {
	StockExhausted(ctx context.Context, event domain.StockExhausted)
}
