package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/go-reservation-api-server/internal/domains/stock/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/stock/ports"
)

var _ ports.Ledger = (*Ledger)(nil)

// reserveScript performs the check-and-decrement in one atomic step on the
// server. Return values: {-1,0} unknown product, {0,available} insufficient,
// {1,remaining} success.
var reserveScript = goredis.NewScript(`
local available = redis.call('GET', KEYS[1])
if not available then
  return {-1, 0}
end
available = tonumber(available)
local requested = tonumber(ARGV[1])
if available < requested then
  return {0, available}
end
redis.call('DECRBY', KEYS[1], requested)
return {1, available - requested}
`)

// Ledger keeps stock levels in Redis. Hot products served out of Redis keep
// the reserve path off the relational database; the Lua script gives the same
// single-conditional-update guarantee the postgres adapter gets from its
// UPDATE ... WHERE available >= ? statement.
type Ledger struct {
	client *goredis.Client
	clock  func() time.Time
}

// NewLedger wires a Redis-backed stock ledger. Caller owns the client lifecycle.
func NewLedger(client *goredis.Client) *Ledger {
	return &Ledger{client: client, clock: time.Now}
}

func levelKey(productID string) string    { return fmt.Sprintf("stock:level:{%s}", productID) }
func movementKey(productID string) string { return fmt.Sprintf("stock:movements:{%s}", productID) }

type movementEntry struct {
	Delta         int64  `json:"delta"`
	Reason        string `json:"reason"`
	ReservationID string `json:"reservationId,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
}

func (l *Ledger) Reserve(ctx context.Context, productID string, quantity int64, reservationID string) error {
	if err := validateMutation(productID, quantity); err != nil {
		return err
	}
	if err := l.ensureClient(); err != nil {
		return err
	}
	result, err := reserveScript.Run(ctx, l.client, []string{levelKey(productID)}, quantity).Result()
	if err != nil {
		return fmt.Errorf("stock reserve script: %w", err)
	}
	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return fmt.Errorf("unexpected reserve script result: %v", result)
	}
	code, _ := values[0].(int64)
	available, _ := values[1].(int64)
	switch code {
	case 1:
		return l.appendMovement(ctx, productID, -quantity, domain.ReasonReserve, reservationID)
	case 0:
		return &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
	case -1:
		return domain.ErrUnknownProduct
	default:
		return fmt.Errorf("unknown reserve script code: %d", code)
	}
}

func (l *Ledger) Release(ctx context.Context, productID string, quantity int64, reservationID string, reason domain.MovementReason) error {
	if err := validateMutation(productID, quantity); err != nil {
		return err
	}
	if err := l.ensureClient(); err != nil {
		return err
	}
	exists, err := l.client.Exists(ctx, levelKey(productID)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrUnknownProduct
	}
	if err := l.client.IncrBy(ctx, levelKey(productID), quantity).Err(); err != nil {
		return err
	}
	return l.appendMovement(ctx, productID, quantity, reason, reservationID)
}

func (l *Ledger) Get(ctx context.Context, productID string) (*domain.Level, error) {
	if err := l.ensureClient(); err != nil {
		return nil, err
	}
	available, err := l.client.Get(ctx, levelKey(productID)).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrUnknownProduct
		}
		return nil, err
	}
	return &domain.Level{ProductID: productID, Available: available, UpdatedAt: l.clock()}, nil
}

func (l *Ledger) Provision(ctx context.Context, productID string, quantity int64) (*domain.Level, error) {
	if err := validateMutation(productID, quantity); err != nil {
		return nil, err
	}
	if err := l.ensureClient(); err != nil {
		return nil, err
	}
	available, err := l.client.IncrBy(ctx, levelKey(productID), quantity).Result()
	if err != nil {
		return nil, err
	}
	if err := l.appendMovement(ctx, productID, quantity, domain.ReasonProvision, ""); err != nil {
		return nil, err
	}
	return &domain.Level{ProductID: productID, Available: available, UpdatedAt: l.clock()}, nil
}

func (l *Ledger) Movements(ctx context.Context, productID string) ([]domain.Movement, error) {
	if err := l.ensureClient(); err != nil {
		return nil, err
	}
	raw, err := l.client.LRange(ctx, movementKey(productID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	movements := make([]domain.Movement, 0, len(raw))
	for i, item := range raw {
		var entry movementEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("decode stock movement: %w", err)
		}
		movements = append(movements, domain.Movement{
			ID:            int64(len(raw) - i),
			ProductID:     productID,
			Delta:         entry.Delta,
			Reason:        domain.MovementReason(entry.Reason),
			ReservationID: entry.ReservationID,
			CreatedAt:     time.Unix(entry.CreatedAt, 0),
		})
	}
	return movements, nil
}

func (l *Ledger) appendMovement(ctx context.Context, productID string, delta int64, reason domain.MovementReason, reservationID string) error {
	entry := movementEntry{
		Delta:         delta,
		Reason:        string(reason),
		ReservationID: reservationID,
		CreatedAt:     l.clock().Unix(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return l.client.LPush(ctx, movementKey(productID), payload).Err()
}

func (l *Ledger) ensureClient() error {
	if l == nil || l.client == nil {
		return errors.New("redis stock ledger not configured")
	}
	return nil
}

func validateMutation(productID string, quantity int64) error {
	if productID == "" {
		return domain.ErrEmptyProductID
	}
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}
