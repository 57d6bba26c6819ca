package reservationserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route defines the parameters for a single API endpoint.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc gin.HandlerFunc
}

// Routes is a map of defined API endpoints.
type Routes map[string][]Route

// ApiHandleFunctions groups the handler implementations for each API group.
type ApiHandleFunctions struct {
	ReservationsAPI ReservationsAPI
	AdminAPI        AdminAPI
}

// NewRouter returns a new gin engine with all API routes attached.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the API routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, routes := range getRoutes(handleFunctions) {
		for _, route := range routes {
			if route.HandlerFunc == nil {
				route.HandlerFunc = defaultHandleFunc
			}
			switch route.Method {
			case http.MethodGet:
				router.GET(route.Pattern, route.HandlerFunc)
			case http.MethodPost:
				router.POST(route.Pattern, route.HandlerFunc)
			case http.MethodPut:
				router.PUT(route.Pattern, route.HandlerFunc)
			case http.MethodDelete:
				router.DELETE(route.Pattern, route.HandlerFunc)
			}
		}
	}
	return router
}

// defaultHandleFunc answers routes without a wired implementation.
func defaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) Routes {
	return Routes{
		"ReservationsAPI": {
			{
				Name:        "CreateReservation",
				Method:      http.MethodPost,
				Pattern:     "/v1/reservations",
				HandlerFunc: handleFunctions.ReservationsAPI.CreateReservation,
			},
			{
				Name:        "ListReservations",
				Method:      http.MethodGet,
				Pattern:     "/v1/reservations",
				HandlerFunc: handleFunctions.ReservationsAPI.ListReservations,
			},
			{
				Name:        "GetReservationById",
				Method:      http.MethodGet,
				Pattern:     "/v1/reservations/:reservationId",
				HandlerFunc: handleFunctions.ReservationsAPI.GetReservationById,
			},
			{
				Name:        "CancelReservation",
				Method:      http.MethodPost,
				Pattern:     "/v1/reservations/:reservationId/cancel",
				HandlerFunc: handleFunctions.ReservationsAPI.CancelReservation,
			},
			{
				Name:        "ClaimReservation",
				Method:      http.MethodPost,
				Pattern:     "/v1/reservations/:reservationId/claim",
				HandlerFunc: handleFunctions.ReservationsAPI.ClaimReservation,
			},
		},
		"AdminAPI": {
			{
				Name:        "SweepReservations",
				Method:      http.MethodPost,
				Pattern:     "/v1/admin/reservations/sweep",
				HandlerFunc: handleFunctions.AdminAPI.SweepReservations,
			},
			{
				Name:        "ProvisionStock",
				Method:      http.MethodPost,
				Pattern:     "/v1/admin/stock/:productId/provision",
				HandlerFunc: handleFunctions.AdminAPI.ProvisionStock,
			},
			{
				Name:        "GetStockLevel",
				Method:      http.MethodGet,
				Pattern:     "/v1/admin/stock/:productId",
				HandlerFunc: handleFunctions.AdminAPI.GetStockLevel,
			},
			{
				Name:        "GetStockMovements",
				Method:      http.MethodGet,
				Pattern:     "/v1/admin/stock/:productId/movements",
				HandlerFunc: handleFunctions.AdminAPI.GetStockMovements,
			},
			{
				Name:        "SaveProduct",
				Method:      http.MethodPut,
				Pattern:     "/v1/admin/products/:productId",
				HandlerFunc: handleFunctions.AdminAPI.SaveProduct,
			},
		},
	}
}
