package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
)

var (
	// ErrInvalidInput signals the request violated a schema or domain
	// invariant; the operation was rejected before any side effect.
	ErrInvalidInput = errors.New("invalid reservation input")
	// ErrNotFound covers both unknown ids and reservations owned by
	// another user, so existence is never leaked.
	ErrNotFound = errors.New("reservation not found")
	// ErrInvalidStateTransition reports an attempted transition from a
	// terminal or mismatched state, including losses to a racing claim,
	// cancel, or expiration.
	ErrInvalidStateTransition = errors.New("invalid reservation state transition")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyPurchaseRef) ||
		errors.Is(err, domain.ErrEmptyUserID) ||
		errors.Is(err, domain.ErrNoLines) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrEmptyLineProduct) ||
		errors.Is(err, domain.ErrDuplicateProduct) ||
		errors.Is(err, domain.ErrInvalidStatus) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, ports.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, ports.ErrStatusConflict) {
		return ErrInvalidStateTransition
	}
	return err
}
