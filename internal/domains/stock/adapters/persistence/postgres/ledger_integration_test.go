//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	stockpostgres "github.com/Apurer/go-reservation-api-server/internal/domains/stock/adapters/persistence/postgres"
	"github.com/Apurer/go-reservation-api-server/internal/domains/stock/domain"
	"github.com/Apurer/go-reservation-api-server/internal/platform/migrations"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("stock_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func TestPostgresLedger_ReserveAndRelease(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	ledger := stockpostgres.NewLedger(db)
	ctx := context.Background()

	_, err := ledger.Provision(ctx, "prod-a", 10)
	require.NoError(t, err)

	err = ledger.Reserve(ctx, "prod-a", 4, "res-1")
	require.NoError(t, err)

	level, err := ledger.Get(ctx, "prod-a")
	require.NoError(t, err)
	assert.Equal(t, int64(6), level.Available)

	err = ledger.Release(ctx, "prod-a", 4, "res-1", domain.ReasonReleaseCancel)
	require.NoError(t, err)

	level, err = ledger.Get(ctx, "prod-a")
	require.NoError(t, err)
	assert.Equal(t, int64(10), level.Available)

	movements, err := ledger.Movements(ctx, "prod-a")
	require.NoError(t, err)
	assert.Len(t, movements, 3)
}

func TestPostgresLedger_ReserveRejectsOverdraw(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	ledger := stockpostgres.NewLedger(db)
	ctx := context.Background()

	_, err := ledger.Provision(ctx, "prod-a", 3)
	require.NoError(t, err)

	err = ledger.Reserve(ctx, "prod-a", 5, "res-1")
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(3), insufficient.Available)

	err = ledger.Reserve(ctx, "prod-missing", 1, "res-1")
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)

	level, err := ledger.Get(ctx, "prod-a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), level.Available, "failed reserve leaves stock untouched")
}

// The conditional UPDATE must arbitrate concurrent reserves at the database:
// with 10 units and 20 racing single-unit reserves, exactly 10 succeed.
func TestPostgresLedger_ConcurrentReservesNeverOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	ledger := stockpostgres.NewLedger(db)
	ctx := context.Background()

	_, err := ledger.Provision(ctx, "prod-a", 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ledger.Reserve(ctx, "prod-a", 1, "res-race")
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			var insufficient *domain.InsufficientStockError
			require.ErrorAs(t, err, &insufficient)
		}
	}
	assert.Equal(t, 10, succeeded)

	level, err := ledger.Get(ctx, "prod-a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), level.Available)
}
