package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
)

var _ ports.StockAlertNotifier = (*Notifier)(nil)

// DefaultTopic is the stock-exhaustion event topic.
const DefaultTopic = "reservations.stock-exhausted"

const publishTimeout = 2 * time.Second

// Notifier publishes stock-exhaustion events to Kafka. Delivery is
// fire-and-forget from a detached goroutine with a bounded timeout, so a
// slow or absent broker can never block or fail the reservation path.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier builds a notifier for the given brokers and topic. Close the
// notifier on shutdown to flush the writer.
func NewNotifier(brokers []string, topic string, logger *slog.Logger) *Notifier {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = slog.Default()
	}
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		Async:        false,
	}
	return &Notifier{writer: writer, logger: logger}
}

type stockExhaustedMessage struct {
	Event      string `json:"event"`
	ProductID  string `json:"productId"`
	Requested  int64  `json:"requested"`
	Available  int64  `json:"available"`
	OccurredAt string `json:"occurredAt"`
}

// StockExhausted publishes the event without blocking the caller.
func (n *Notifier) StockExhausted(_ context.Context, event domain.StockExhausted) {
	payload, err := json.Marshal(stockExhaustedMessage{
		Event:      event.EventName(),
		ProductID:  event.ProductID,
		Requested:  event.Requested,
		Available:  event.Available,
		OccurredAt: event.OccurredAt().UTC().Format(time.RFC3339),
	})
	if err != nil {
		n.logger.Error("encode stock exhaustion event", slog.String("error", err.Error()))
		return
	}
	// Detached from the request context: the reservation response must not
	// wait on the broker, and request cancellation must not drop the alert.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := n.writer.WriteMessages(ctx, kafkago.Message{
			Key:   []byte(event.ProductID),
			Value: payload,
		}); err != nil {
			n.logger.Warn("stock exhaustion event dropped",
				slog.String("product.id", event.ProductID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Close flushes and closes the underlying writer.
func (n *Notifier) Close() error {
	return n.writer.Close()
}
