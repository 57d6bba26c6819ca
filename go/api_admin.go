package reservationserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	catalogdomain "github.com/Apurer/go-reservation-api-server/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-reservation-api-server/internal/domains/catalog/ports"
	resports "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
	stockhttpmapper "github.com/Apurer/go-reservation-api-server/internal/domains/stock/adapters/http/mapper"
	stockdomain "github.com/Apurer/go-reservation-api-server/internal/domains/stock/domain"
	stockports "github.com/Apurer/go-reservation-api-server/internal/domains/stock/ports"
)

// AdminAPI exposes the operational surface: manual sweeps, stock
// provisioning, the movement audit trail, and product seeding.
type AdminAPI struct {
	service resports.Service
	ledger  stockports.Ledger
	catalog catalogports.Provider
}

// NewAdminAPI creates an AdminAPI backed by the provided collaborators.
func NewAdminAPI(service resports.Service, ledger stockports.Ledger, catalog catalogports.Provider) AdminAPI {
	return AdminAPI{service: service, ledger: ledger, catalog: catalog}
}

// Post /v1/admin/reservations/sweep
// Run one expiration sweep pass immediately
func (api *AdminAPI) SweepReservations(c *gin.Context) {
	released, err := api.service.SweepExpired(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}

// Post /v1/admin/stock/:productId/provision
// Add quantity to a product's available stock
func (api *AdminAPI) ProvisionStock(c *gin.Context) {
	var payload stockhttpmapper.Provision
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	level, err := api.ledger.Provision(c.Request.Context(), c.Param("productId"), payload.Quantity)
	if err != nil {
		respondStockError(c, err)
		return
	}
	c.JSON(http.StatusOK, stockhttpmapper.FromLevel(level))
}

// Get /v1/admin/stock/:productId
// Read a product's current stock level
func (api *AdminAPI) GetStockLevel(c *gin.Context) {
	level, err := api.ledger.Get(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondStockError(c, err)
		return
	}
	c.JSON(http.StatusOK, stockhttpmapper.FromLevel(level))
}

// Get /v1/admin/stock/:productId/movements
// Read a product's movement audit trail, newest first
func (api *AdminAPI) GetStockMovements(c *gin.Context) {
	movements, err := api.ledger.Movements(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondStockError(c, err)
		return
	}
	c.JSON(http.StatusOK, stockhttpmapper.FromMovements(movements))
}

// Put /v1/admin/products/:productId
// Create or update a catalog product so reservations can reference it
func (api *AdminAPI) SaveProduct(c *gin.Context) {
	var payload struct {
		Name string `json:"name"`
		SKU  string `json:"sku"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	product, err := catalogdomain.NewProduct(c.Param("productId"), payload.Name, payload.SKU)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	saved, err := api.catalog.Save(c.Request.Context(), product)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":   saved.ID,
		"name": saved.Name,
		"sku":  saved.SKU,
	})
}

func respondStockError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stockdomain.ErrUnknownProduct):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, stockdomain.ErrEmptyProductID), errors.Is(err, stockdomain.ErrInvalidQuantity):
		respondError(c, http.StatusBadRequest, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
