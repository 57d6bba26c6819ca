package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	catalogpostgres "github.com/Apurer/go-reservation-api-server/internal/domains/catalog/adapters/persistence/postgres"
	respostgres "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/persistence/postgres"
	resapp "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application"
	stockpostgres "github.com/Apurer/go-reservation-api-server/internal/domains/stock/adapters/persistence/postgres"
	platformpostgres "github.com/Apurer/go-reservation-api-server/internal/platform/postgres"
)

// One-shot expiration sweep, intended for cron-style scheduling alongside or
// instead of the in-process sweeper.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot sweep reservations")
	}

	opts := []resapp.Option{resapp.WithLogger(logger)}
	if size := batchSizeFromEnv(); size > 0 {
		opts = append(opts, resapp.WithSweepBatchSize(size))
	}
	service := resapp.NewService(
		respostgres.NewRepository(db),
		stockpostgres.NewLedger(db),
		catalogpostgres.NewProvider(db),
		opts...,
	)
	released, err := service.SweepExpired(ctx)
	if err != nil {
		log.Fatalf("failed to sweep expired reservations: %v", err)
	}
	log.Printf("expiration sweep completed, released %d reservations", released)
}

func batchSizeFromEnv() int {
	raw := strings.TrimSpace(os.Getenv("SWEEP_BATCH_SIZE"))
	if raw == "" {
		return 0
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size <= 0 {
		return 0
	}
	return size
}
