package reservationserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	resapp "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application"
	apierrors "github.com/Apurer/go-reservation-api-server/internal/shared/errors"
	stockdomain "github.com/Apurer/go-reservation-api-server/internal/domains/stock/domain"
)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	apierrors.Respond(c, problem)
}

// respondError maps a bare error onto an RFC 7807 response for the given status.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	var problem apierrors.ProblemDetail
	switch status {
	case http.StatusBadRequest:
		problem = apierrors.ErrBadRequest.WithDetail(err.Error())
	case http.StatusNotFound:
		problem = apierrors.ErrNotFound.WithDetail(err.Error())
	case http.StatusUnauthorized:
		problem = apierrors.ErrUnauthorized.WithDetail(err.Error())
	case http.StatusConflict:
		problem = apierrors.ErrConflict.WithDetail(err.Error())
	default:
		problem = apierrors.ErrInternal.WithDetail(err.Error())
	}
	respondProblem(c, problem)
}

// respondReservationError translates reservation application errors into
// problem responses. Insufficient stock and losing a status race are both
// conflicts with current state, not client mistakes, so both map to 409.
func respondReservationError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	var insufficient *stockdomain.InsufficientStockError
	if errors.As(err, &insufficient) {
		respondProblem(c, apierrors.ErrConflict.
			WithDetail(insufficient.Error()).
			WithExtension("productId", insufficient.ProductID).
			WithExtension("requested", insufficient.Requested).
			WithExtension("available", insufficient.Available))
		return
	}
	switch {
	case errors.Is(err, resapp.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, resapp.ErrInvalidStateTransition):
		respondError(c, http.StatusConflict, err)
	case errors.Is(err, resapp.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
