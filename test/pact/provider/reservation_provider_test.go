//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-reservation-api-server/test/pact"

	reservationserver "github.com/Apurer/go-reservation-api-server/go"
	catalogdomain "github.com/Apurer/go-reservation-api-server/internal/domains/catalog/domain"
	catalogmemory "github.com/Apurer/go-reservation-api-server/internal/domains/catalog/adapters/memory"
	resmemory "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/memory"
	resobs "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/observability"
	resworkflows "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/workflows"
	resapp "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application"
	resdomain "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	stockmemory "github.com/Apurer/go-reservation-api-server/internal/domains/stock/adapters/memory"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"
)

func TestReservationProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateStockSeeded: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedProduct(t, 100)
			}
			return nil, nil
		},
		pacttest.StateReservationExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedProduct(t, 100)
				app.seedReservation(t)
			}
			return nil, nil
		},
		pacttest.StateReservationMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
		pacttest.StateStockExhausted: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedProduct(t, 0)
			}
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset(t)
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp serves the API over swappable in-memory state so each
// provider state starts from a clean slate without restarting the server.
type contractProviderApp struct {
	mu      sync.Mutex
	repo    *resmemory.Repository
	ledger  *stockmemory.Ledger
	catalog *catalogmemory.Provider
	router  *gin.Engine
	server  *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset(t)
	app.server = httptest.NewServer(app)
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	router := a.router
	a.mu.Unlock()
	router.ServeHTTP(w, r)
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()

	a.repo = resmemory.NewRepository()
	a.ledger = stockmemory.NewLedger()
	a.catalog = catalogmemory.NewProvider()

	service := resobs.New(resapp.NewService(a.repo, a.ledger, a.catalog))
	workflows := resworkflows.NewInlineReservationWorkflows(service)
	handlers := reservationserver.ApiHandleFunctions{
		ReservationsAPI: reservationserver.NewReservationsAPI(service, workflows),
		AdminAPI:        reservationserver.NewAdminAPI(service, a.ledger, a.catalog),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	a.router = reservationserver.NewRouterWithGinEngine(router, handlers)
}

func (a *contractProviderApp) seedProduct(t testing.TB, stock int64) {
	t.Helper()
	ctx := context.Background()
	product, err := catalogdomain.NewProduct(pacttest.PactProductID, "Pact Product", "sku-pact-1")
	require.NoError(t, err)
	_, err = a.catalog.Save(ctx, product)
	require.NoError(t, err)
	if stock > 0 {
		_, err = a.ledger.Provision(ctx, pacttest.PactProductID, stock)
		require.NoError(t, err)
	}
}

func (a *contractProviderApp) seedReservation(t testing.TB) {
	t.Helper()
	reservation, err := resdomain.NewReservation(
		pacttest.ExistingReservationID,
		pacttest.PactPurchaseRef,
		pacttest.PactUserID,
		[]resdomain.Line{{ProductID: pacttest.PactProductID, Quantity: 2}},
		time.Now(),
		30*time.Minute,
	)
	require.NoError(t, err)
	_, err = a.repo.Create(context.Background(), reservation)
	require.NoError(t, err)
}
