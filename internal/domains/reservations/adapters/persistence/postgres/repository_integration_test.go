//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	respostgres "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/persistence/postgres"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
	"github.com/Apurer/go-reservation-api-server/internal/platform/migrations"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("reservations_test"),
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

	// Run migrations
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

func newReservation(t *testing.T, id, userID string, lines []domain.Line, now time.Time) *domain.Reservation {
	t.Helper()
	reservation, err := domain.NewReservation(id, "po-"+id, userID, lines, now, 30*time.Minute)
	require.NoError(t, err)
	return reservation
}

func TestPostgresRepository_CreateAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := respostgres.NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	reservation := newReservation(t, "res-1", "user-1", []domain.Line{
		{ProductID: "prod-a", Quantity: 3},
		{ProductID: "prod-b", Quantity: 1},
	}, now)

	saved, err := repo.Create(ctx, reservation)
	require.NoError(t, err)
	assert.Equal(t, "res-1", saved.ID)
	assert.Equal(t, domain.StatusConfirmed, saved.Status)
	assert.Len(t, saved.Lines, 2)

	loaded, err := repo.GetByID(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", loaded.UserID)
	assert.Equal(t, "po-res-1", loaded.PurchaseRef)
	assert.Len(t, loaded.Lines, 2)
	assert.Equal(t, int64(3), loaded.Lines[0].Quantity)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPostgresRepository_ListFiltersAndPaginates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := respostgres.NewRepository(db)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	ids := []string{"res-1", "res-2", "res-3"}
	for i, id := range ids {
		reservation := newReservation(t, id, "user-1", []domain.Line{{ProductID: "prod-a", Quantity: 1}}, base.Add(time.Duration(i)*time.Minute))
		_, err := repo.Create(ctx, reservation)
		require.NoError(t, err)
	}
	other := newReservation(t, "res-other", "user-2", []domain.Line{{ProductID: "prod-a", Quantity: 1}}, base)
	_, err := repo.Create(ctx, other)
	require.NoError(t, err)

	items, total, err := repo.List(ctx, ports.ListFilter{UserID: "user-1", Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, "res-3", items[0].ID, "newest first")

	items, _, err = repo.List(ctx, ports.ListFilter{UserID: "user-1", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	cancelled := domain.StatusCancelled
	_, err = repo.TransitionStatus(ctx, "res-2", domain.StatusConfirmed, domain.StatusCancelled, ports.TransitionFields{CancellationReason: "test"})
	require.NoError(t, err)
	items, total, err = repo.List(ctx, ports.ListFilter{UserID: "user-1", Status: &cancelled, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "res-2", items[0].ID)
}

func TestPostgresRepository_TransitionStatusArbitrates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := respostgres.NewRepository(db)
	ctx := context.Background()

	reservation := newReservation(t, "res-1", "user-1", []domain.Line{{ProductID: "prod-a", Quantity: 2}}, time.Now().UTC())
	_, err := repo.Create(ctx, reservation)
	require.NoError(t, err)

	claimed, err := repo.TransitionStatus(ctx, "res-1", domain.StatusConfirmed, domain.StatusClaimed, ports.TransitionFields{OperatorID: "operator-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClaimed, claimed.Status)
	assert.Equal(t, "operator-1", claimed.OperatorID)

	// The row already left confirmed: a second transition loses the race.
	_, err = repo.TransitionStatus(ctx, "res-1", domain.StatusConfirmed, domain.StatusCancelled, ports.TransitionFields{})
	assert.ErrorIs(t, err, ports.ErrStatusConflict)

	_, err = repo.TransitionStatus(ctx, "missing", domain.StatusConfirmed, domain.StatusCancelled, ports.TransitionFields{})
	assert.ErrorIs(t, err, ports.ErrNotFound)

	// Transitions out of terminal states are rejected before touching the row.
	_, err = repo.TransitionStatus(ctx, "res-1", domain.StatusClaimed, domain.StatusCancelled, ports.TransitionFields{})
	assert.ErrorIs(t, err, ports.ErrStatusConflict)
}

func TestPostgresRepository_FindExpired(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := respostgres.NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	// Created two hours ago with a 30 minute TTL: expired.
	stale := newReservation(t, "res-stale", "user-1", []domain.Line{{ProductID: "prod-a", Quantity: 1}}, now.Add(-2*time.Hour))
	_, err := repo.Create(ctx, stale)
	require.NoError(t, err)

	// Fresh one holds its stock.
	fresh := newReservation(t, "res-fresh", "user-1", []domain.Line{{ProductID: "prod-a", Quantity: 1}}, now)
	_, err = repo.Create(ctx, fresh)
	require.NoError(t, err)

	// Expired but already claimed: not a sweep candidate.
	claimedStale := newReservation(t, "res-claimed", "user-1", []domain.Line{{ProductID: "prod-a", Quantity: 1}}, now.Add(-2*time.Hour))
	_, err = repo.Create(ctx, claimedStale)
	require.NoError(t, err)
	_, err = repo.TransitionStatus(ctx, "res-claimed", domain.StatusConfirmed, domain.StatusClaimed, ports.TransitionFields{OperatorID: "op"})
	require.NoError(t, err)

	candidates, err := repo.FindExpired(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "res-stale", candidates[0].ID)
	assert.Len(t, candidates[0].Lines, 1)
}
