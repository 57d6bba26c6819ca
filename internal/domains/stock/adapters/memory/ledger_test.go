package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-reservation-api-server/internal/domains/stock/domain"
)

func TestReserve_DecrementsAndRecordsMovement(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()
	_, err := ledger.Provision(ctx, "prod-1", 10)
	require.NoError(t, err)

	require.NoError(t, ledger.Reserve(ctx, "prod-1", 4, "res-1"))

	level, err := ledger.Get(ctx, "prod-1")
	require.NoError(t, err)
	require.Equal(t, int64(6), level.Available)

	movements, err := ledger.Movements(ctx, "prod-1")
	require.NoError(t, err)
	require.Len(t, movements, 2)
	require.Equal(t, int64(-4), movements[0].Delta)
	require.Equal(t, domain.ReasonReserve, movements[0].Reason)
	require.Equal(t, "res-1", movements[0].ReservationID)
}

func TestReserve_InsufficientStockCarriesQuantities(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()
	_, err := ledger.Provision(ctx, "prod-1", 3)
	require.NoError(t, err)

	err = ledger.Reserve(ctx, "prod-1", 5, "res-1")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, "prod-1", insufficient.ProductID)
	require.Equal(t, int64(5), insufficient.Requested)
	require.Equal(t, int64(3), insufficient.Available)

	level, err := ledger.Get(ctx, "prod-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), level.Available)
}

func TestReserve_UnknownProduct(t *testing.T) {
	ledger := NewLedger()
	err := ledger.Reserve(context.Background(), "ghost", 1, "res-1")
	require.ErrorIs(t, err, domain.ErrUnknownProduct)
}

func TestRelease_RestoresStock(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()
	_, err := ledger.Provision(ctx, "prod-1", 10)
	require.NoError(t, err)
	require.NoError(t, ledger.Reserve(ctx, "prod-1", 10, "res-1"))

	require.NoError(t, ledger.Release(ctx, "prod-1", 10, "res-1", domain.ReasonReleaseCancel))

	level, err := ledger.Get(ctx, "prod-1")
	require.NoError(t, err)
	require.Equal(t, int64(10), level.Available)
}

// Concurrent reserves against stock S must never hand out more than S in
// total, no matter how the goroutines interleave.
func TestReserve_ConcurrentNeverOversells(t *testing.T) {
	const (
		provisioned = 50
		workers     = 100
	)
	ledger := NewLedger()
	ctx := context.Background()
	_, err := ledger.Provision(ctx, "prod-1", provisioned)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ledger.Reserve(ctx, "prod-1", 1, "res-x"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, provisioned, succeeded)
	level, err := ledger.Get(ctx, "prod-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), level.Available)
}

// Scenario: stock 5, two racing reserves of 5 each. Exactly one wins and the
// loser observes available == 0.
func TestReserve_TwoFullQuantityRacers(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()
	_, err := ledger.Provision(ctx, "prod-1", 5)
	require.NoError(t, err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ledger.Reserve(ctx, "prod-1", 5, "res-race")
		}()
	}
	wg.Wait()
	close(errs)

	var failures []error
	for err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	require.Len(t, failures, 1)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, failures[0], &insufficient)
	require.Equal(t, int64(0), insufficient.Available)
}
