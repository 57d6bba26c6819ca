package mapper

import (
	"time"

	restypes "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application/types"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
)

// Line is the HTTP representation of one reserved product/quantity pair.
type Line struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// CreateReservation captures the inbound creation payload.
type CreateReservation struct {
	PurchaseRef string `json:"purchaseRef"`
	Lines       []Line `json:"lines"`
}

// CancelReservation captures the inbound cancellation payload.
type CancelReservation struct {
	Motivo string `json:"motivo"`
}

// ClaimReservation captures the inbound claim payload.
type ClaimReservation struct {
	OperatorID string `json:"operatorId"`
}

// Reservation is the HTTP representation of a reservation record.
type Reservation struct {
	ID                 string    `json:"id"`
	PurchaseRef        string    `json:"purchaseRef"`
	UserID             string    `json:"userId"`
	Status             string    `json:"status"`
	Lines              []Line    `json:"lines"`
	CancellationReason string    `json:"cancellationReason,omitempty"`
	OperatorID         string    `json:"operatorId,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	ExpiresAt          time.Time `json:"expiresAt"`
}

// ReservationPage is the HTTP representation of one listing page.
type ReservationPage struct {
	Items []Reservation `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int64         `json:"total"`
}

// ToCreateInput maps the transport payload into the application command.
func ToCreateInput(userID string, payload CreateReservation) restypes.CreateReservationInput {
	lines := make([]restypes.LineInput, 0, len(payload.Lines))
	for _, line := range payload.Lines {
		lines = append(lines, restypes.LineInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return restypes.CreateReservationInput{
		PurchaseRef: payload.PurchaseRef,
		UserID:      userID,
		Lines:       lines,
	}
}

// FromDomain maps a domain reservation into its transport representation.
func FromDomain(reservation *domain.Reservation) Reservation {
	if reservation == nil {
		return Reservation{}
	}
	lines := make([]Line, 0, len(reservation.Lines))
	for _, line := range reservation.Lines {
		lines = append(lines, Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return Reservation{
		ID:                 reservation.ID,
		PurchaseRef:        reservation.PurchaseRef,
		UserID:             reservation.UserID,
		Status:             string(reservation.Status),
		Lines:              lines,
		CancellationReason: reservation.CancellationReason,
		OperatorID:         reservation.OperatorID,
		CreatedAt:          reservation.CreatedAt,
		UpdatedAt:          reservation.UpdatedAt,
		ExpiresAt:          reservation.ExpiresAt,
	}
}

// FromPage maps one listing page into its transport representation.
func FromPage(page *restypes.ReservationPage) ReservationPage {
	if page == nil {
		return ReservationPage{Items: []Reservation{}}
	}
	items := make([]Reservation, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, FromDomain(item))
	}
	return ReservationPage{Items: items, Page: page.Page, Limit: page.Limit, Total: page.Total}
}
