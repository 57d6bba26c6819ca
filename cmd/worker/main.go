package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	catalogmemory "github.com/Apurer/go-reservation-api-server/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/Apurer/go-reservation-api-server/internal/domains/catalog/adapters/persistence/postgres"
	catalogports "github.com/Apurer/go-reservation-api-server/internal/domains/catalog/ports"
	resmemory "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/memory"
	resobs "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/observability"
	respostgres "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/persistence/postgres"
	resapp "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application"
	resports "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
	stockmemory "github.com/Apurer/go-reservation-api-server/internal/domains/stock/adapters/memory"
	stockpostgres "github.com/Apurer/go-reservation-api-server/internal/domains/stock/adapters/persistence/postgres"
	stockports "github.com/Apurer/go-reservation-api-server/internal/domains/stock/ports"
	platformobservability "github.com/Apurer/go-reservation-api-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-reservation-api-server/internal/platform/postgres"
	resactivities "github.com/Apurer/go-reservation-api-server/internal/platform/temporal/activities/reservations"
	resworkflows "github.com/Apurer/go-reservation-api-server/internal/platform/temporal/workflows/reservations"
)

func main() {
	ctx := context.Background()
	const serviceName = "reservation-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	repo, ledger, catalog, cleanupStores := buildStores(ctx, logger)
	defer cleanupStores()
	coreService := resapp.NewService(repo, ledger, catalog, resapp.WithLogger(logger))
	service := resobs.New(
		coreService,
		resobs.WithLogger(logger),
		resobs.WithTracer(instruments.Tracer("internal.reservations.application")),
		resobs.WithMeter(instruments.Meter("internal.reservations.application")),
	)
	activities := resactivities.NewActivities(service)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, resworkflows.ReservationCreationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(resworkflows.ReservationCreationWorkflow, workflow.RegisterOptions{Name: resworkflows.ReservationCreationWorkflowName})
	w.RegisterActivityWithOptions(activities.CreateReservation, activity.RegisterOptions{Name: resactivities.CreateReservationActivityName})

	logger.Info("worker listening", slog.String("taskQueue", resworkflows.ReservationCreationTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildStores(ctx context.Context, logger *slog.Logger) (resports.Repository, stockports.Ledger, catalogports.Provider, func()) {
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	if db == nil {
		logger.Warn("worker using in-memory reservation stores")
		return resmemory.NewRepository(), stockmemory.NewLedger(), catalogmemory.NewProvider(), cleanup
	}
	logger.Info("worker reservation stores configured with postgres")
	return respostgres.NewRepository(db), stockpostgres.NewLedger(db), catalogpostgres.NewProvider(db), cleanup
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
