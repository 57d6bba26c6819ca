package mapper

import (
	"time"

	"github.com/Apurer/go-reservation-api-server/internal/domains/stock/domain"
)

// Level is the HTTP representation of one product's stock level.
type Level struct {
	ProductID string    `json:"productId"`
	Available int64     `json:"available"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Movement is the HTTP representation of one ledger movement.
type Movement struct {
	ID            int64     `json:"id"`
	ProductID     string    `json:"productId"`
	Delta         int64     `json:"delta"`
	Reason        string    `json:"reason"`
	ReservationID string    `json:"reservationId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Provision captures the inbound stock provisioning payload.
type Provision struct {
	Quantity int64 `json:"quantity"`
}

// FromLevel maps a domain level into its transport representation.
func FromLevel(level *domain.Level) Level {
	if level == nil {
		return Level{}
	}
	return Level{ProductID: level.ProductID, Available: level.Available, UpdatedAt: level.UpdatedAt}
}

// FromMovements maps ledger movements into their transport representation.
func FromMovements(movements []domain.Movement) []Movement {
	result := make([]Movement, 0, len(movements))
	for _, m := range movements {
		result = append(result, Movement{
			ID:            m.ID,
			ProductID:     m.ProductID,
			Delta:         m.Delta,
			Reason:        string(m.Reason),
			ReservationID: m.ReservationID,
			CreatedAt:     m.CreatedAt,
		})
	}
	return result
}
