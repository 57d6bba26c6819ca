package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application/types"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
)

func TestSweepExpired_ReleasesStockAndMarksExpired(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-a", 10)
	ctx := context.Background()

	res, err := f.service.CreateReservation(ctx, createInput("user-1", types.LineInput{ProductID: "prod-a", Quantity: 4}))
	require.NoError(t, err)
	require.Equal(t, int64(6), f.available(t, "prod-a"))

	// Still inside the TTL: nothing to sweep.
	f.advance(29 * time.Minute)
	count, err := f.service.SweepExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
	require.Equal(t, int64(6), f.available(t, "prod-a"))

	f.advance(2 * time.Minute)
	count, err = f.service.SweepExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, int64(10), f.available(t, "prod-a"))

	swept, err := f.service.GetReservation(ctx, res.ID, "user-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusExpired, swept.Status)
}

func TestSweepExpired_ExpiredReservationCannotBeClaimed(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-a", 10)
	ctx := context.Background()

	res, err := f.service.CreateReservation(ctx, createInput("user-1", types.LineInput{ProductID: "prod-a", Quantity: 4}))
	require.NoError(t, err)

	f.advance(31 * time.Minute)
	_, err = f.service.SweepExpired(ctx)
	require.NoError(t, err)

	_, err = f.service.ClaimReservation(ctx, res.ID, "operator-7")
	require.ErrorIs(t, err, ErrInvalidStateTransition)
	require.Equal(t, int64(10), f.available(t, "prod-a"))
}

// A reservation claimed before the sweeper reaches it must survive the sweep
// with its stock still consumed, even when its TTL already elapsed.
func TestSweepExpired_SkipsClaimedReservation(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-a", 10)
	ctx := context.Background()

	res, err := f.service.CreateReservation(ctx, createInput("user-1", types.LineInput{ProductID: "prod-a", Quantity: 4}))
	require.NoError(t, err)

	f.advance(31 * time.Minute)
	_, err = f.service.ClaimReservation(ctx, res.ID, "operator-7")
	require.NoError(t, err)

	count, err := f.service.SweepExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
	require.Equal(t, int64(6), f.available(t, "prod-a"), "claimed stock stays consumed")

	claimed, err := f.service.GetReservation(ctx, res.ID, "user-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusClaimed, claimed.Status)
}

func TestSweepExpired_HonorsBatchSize(t *testing.T) {
	f := newFixture(t, WithSweepBatchSize(2))
	f.seedProduct(t, "prod-a", 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.service.CreateReservation(ctx, createInput("user-1", types.LineInput{ProductID: "prod-a", Quantity: 1}))
		require.NoError(t, err)
	}
	f.advance(31 * time.Minute)

	count, err := f.service.SweepExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = f.service.SweepExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, int64(100), f.available(t, "prod-a"))
}

func TestSweeper_RunStopsOnContextCancel(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-a", 10)

	ctx, cancel := context.WithCancel(context.Background())
	sweeper := NewSweeper(f.service, WithSweepInterval(5*time.Millisecond))
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}

func TestSweeper_SweepOncePass(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-a", 10)
	ctx := context.Background()

	_, err := f.service.CreateReservation(ctx, createInput("user-1", types.LineInput{ProductID: "prod-a", Quantity: 3}))
	require.NoError(t, err)
	f.advance(31 * time.Minute)

	NewSweeper(f.service).SweepOnce(ctx)
	require.Equal(t, int64(10), f.available(t, "prod-a"))
}
