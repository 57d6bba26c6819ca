package reservationserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	reshttpmapper "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/http/mapper"
	restypes "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application/types"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	resports "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
)

// HeaderUserID carries the authenticated caller identity resolved by the edge.
const HeaderUserID = "X-User-ID"

// ReservationsAPI wires HTTP transport with the reservations bounded context
// service and workflows.
type ReservationsAPI struct {
	service   resports.Service
	workflows resports.WorkflowOrchestrator
}

// NewReservationsAPI creates a ReservationsAPI backed by the provided service.
func NewReservationsAPI(service resports.Service, workflows resports.WorkflowOrchestrator) ReservationsAPI {
	return ReservationsAPI{service: service, workflows: workflows}
}

// Post /v1/reservations
// Create a reservation, atomically decrementing stock for every line
func (api *ReservationsAPI) CreateReservation(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var payload reshttpmapper.CreateReservation
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	input := reshttpmapper.ToCreateInput(userID, payload)
	reservation, err := api.createReservation(c.Request.Context(), input)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reshttpmapper.FromDomain(reservation))
}

func (api *ReservationsAPI) createReservation(ctx context.Context, input restypes.CreateReservationInput) (*domain.Reservation, error) {
	if api.workflows != nil {
		return api.workflows.CreateReservation(ctx, input)
	}
	return api.service.CreateReservation(ctx, input)
}

// Get /v1/reservations/:reservationId
// Find a reservation by ID, scoped to the calling user
func (api *ReservationsAPI) GetReservationById(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	reservation, err := api.service.GetReservation(c.Request.Context(), c.Param("reservationId"), userID)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, reshttpmapper.FromDomain(reservation))
}

// Get /v1/reservations
// List the calling user's reservations, newest first
func (api *ReservationsAPI) ListReservations(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	input := restypes.ListReservationsInput{UserID: userID, Status: c.Query("status")}
	var parseErr error
	if input.Page, parseErr = queryInt(c, "page"); parseErr != nil {
		respondError(c, http.StatusBadRequest, parseErr)
		return
	}
	if input.Limit, parseErr = queryInt(c, "limit"); parseErr != nil {
		respondError(c, http.StatusBadRequest, parseErr)
		return
	}
	page, err := api.service.ListReservations(c.Request.Context(), input)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, reshttpmapper.FromPage(page))
}

// Post /v1/reservations/:reservationId/cancel
// Cancel a confirmed reservation and return its stock
func (api *ReservationsAPI) CancelReservation(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	var payload reshttpmapper.CancelReservation
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	reservation, err := api.service.CancelReservation(c.Request.Context(), c.Param("reservationId"), payload.Motivo)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, reshttpmapper.FromDomain(reservation))
}

// Post /v1/reservations/:reservationId/claim
// Claim a confirmed reservation, converting held stock into a fulfilled purchase
func (api *ReservationsAPI) ClaimReservation(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	var payload reshttpmapper.ClaimReservation
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	reservation, err := api.service.ClaimReservation(c.Request.Context(), c.Param("reservationId"), payload.OperatorID)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, reshttpmapper.FromDomain(reservation))
}

func callerID(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
	if userID == "" {
		respondError(c, http.StatusUnauthorized, errors.New("missing "+HeaderUserID+" header"))
		return "", false
	}
	return userID, true
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return value, nil
}
