package domain

import "time"

// Event is the base interface for reservation domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// StockExhausted is raised when a reserve attempt is rejected for lack of
// stock. It is handed to the notification emitter fire-and-forget; delivery
// must never block or fail the reservation path.
type StockExhausted struct {
	BaseEvent
	ProductID string
	Requested int64
	Available int64
}

// EventName returns the event type identifier.
func (e StockExhausted) EventName() string {
	return "reservations.stock.exhausted"
}

// ReservationTerminated is raised when a reservation reaches a terminal
// state. Outcome is the terminal status; Released carries the total quantity
// returned to the ledger (zero for claims).
type ReservationTerminated struct {
	BaseEvent
	ReservationID string
	Outcome       Status
	Released      int64
}

// EventName returns the event type identifier.
func (e ReservationTerminated) EventName() string {
	return "reservations.reservation.terminated"
}
