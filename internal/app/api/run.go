package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/gin-gonic/gin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	reservationserver "github.com/Apurer/go-reservation-api-server/go"

	catalogmemory "github.com/Apurer/go-reservation-api-server/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/Apurer/go-reservation-api-server/internal/domains/catalog/adapters/persistence/postgres"
	catalogports "github.com/Apurer/go-reservation-api-server/internal/domains/catalog/ports"
	reskafka "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/kafka"
	resmemory "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/memory"
	resobs "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/observability"
	respostgres "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/persistence/postgres"
	resworkflows "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/adapters/workflows"
	resapp "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/application"
	resports "github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
	stockmemory "github.com/Apurer/go-reservation-api-server/internal/domains/stock/adapters/memory"
	stockpostgres "github.com/Apurer/go-reservation-api-server/internal/domains/stock/adapters/persistence/postgres"
	stockredis "github.com/Apurer/go-reservation-api-server/internal/domains/stock/adapters/redis"
	stockports "github.com/Apurer/go-reservation-api-server/internal/domains/stock/ports"
	platformobservability "github.com/Apurer/go-reservation-api-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-reservation-api-server/internal/platform/postgres"
)

// Run boots the reservation HTTP API with observability, datastores,
// workflows, and the expiration sweeper wired.
func Run(ctx context.Context) error {
	const serviceName = "reservation-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	repo, ledger, catalog, cleanupStores := buildStores(ctx, cfg, logger)
	defer cleanupStores()

	serviceOpts := []resapp.Option{resapp.WithLogger(logger)}
	if cfg.ReservationTTL > 0 {
		serviceOpts = append(serviceOpts, resapp.WithTTL(cfg.ReservationTTL))
	}
	if cfg.SweepBatchSize > 0 {
		serviceOpts = append(serviceOpts, resapp.WithSweepBatchSize(cfg.SweepBatchSize))
	}
	if len(cfg.KafkaBrokers) > 0 {
		notifier := reskafka.NewNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := notifier.Close(); err != nil {
				logger.Warn("failed to close kafka notifier", slog.String("error", err.Error()))
			}
		}()
		serviceOpts = append(serviceOpts, resapp.WithNotifier(notifier))
		logger.Info("stock-exhaustion notifier configured with kafka", slog.Any("brokers", cfg.KafkaBrokers))
	}
	coreService := resapp.NewService(repo, ledger, catalog, serviceOpts...)
	service := resobs.New(
		coreService,
		resobs.WithLogger(logger),
		resobs.WithTracer(instruments.Tracer("internal.reservations.application")),
		resobs.WithMeter(instruments.Meter("internal.reservations.application")),
	)

	var workflows resports.WorkflowOrchestrator = resworkflows.NewInlineReservationWorkflows(service)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running creation inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		workflows = resworkflows.NewTemporalReservationWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	sweeperOpts := []resapp.SweeperOption{resapp.WithSweeperLogger(logger)}
	if cfg.SweepInterval > 0 {
		sweeperOpts = append(sweeperOpts, resapp.WithSweepInterval(cfg.SweepInterval))
	}
	sweeperCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go resapp.NewSweeper(service, sweeperOpts...).Run(sweeperCtx)

	handlers := reservationserver.ApiHandleFunctions{
		ReservationsAPI: reservationserver.NewReservationsAPI(service, workflows),
		AdminAPI:        reservationserver.NewAdminAPI(service, ledger, catalog),
	}

	engine := gin.Default()
	engine.Use(otelgin.Middleware(serviceName))
	router := reservationserver.NewRouterWithGinEngine(engine, handlers)
	addr := ":" + cfg.Port
	logger.Info("reservation API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("reservation API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// buildStores picks the datastore backends from configuration: postgres for
// reservations and catalog when a DSN is present, redis for the stock ledger
// when an address is present (overriding postgres for that one concern), and
// in-memory fallbacks otherwise.
func buildStores(ctx context.Context, cfg Config, logger *slog.Logger) (resports.Repository, stockports.Ledger, catalogports.Provider, func()) {
	var (
		repo     resports.Repository
		ledger   stockports.Ledger
		catalog  catalogports.Provider
		cleanups []func()
	)

	if cfg.PostgresDSN != "" {
		if db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN); err != nil {
			logger.Warn("failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		} else if sqlDB, err := db.DB(); err != nil {
			logger.Warn("failed to unwrap postgres connection, falling back to memory", slog.String("error", err.Error()))
		} else {
			cleanups = append(cleanups, func() { _ = sqlDB.Close() })
			repo = respostgres.NewRepository(db)
			ledger = stockpostgres.NewLedger(db)
			catalog = catalogpostgres.NewProvider(db)
			logger.Info("reservation stores configured with postgres")
		}
	}
	if repo == nil {
		logger.Warn("POSTGRES_DSN not usable, using in-memory reservation stores")
		repo = resmemory.NewRepository()
		catalog = catalogmemory.NewProvider()
		ledger = stockmemory.NewLedger()
	}

	if cfg.RedisAddr != "" {
		redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("failed to connect to redis, keeping current stock ledger", slog.String("error", err.Error()))
			_ = redisClient.Close()
		} else {
			cleanups = append(cleanups, func() { _ = redisClient.Close() })
			ledger = stockredis.NewLedger(redisClient)
			logger.Info("stock ledger configured with redis")
		}
	}

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return repo, ledger, catalog, cleanup
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	logger := workerlog.NewStructuredLogger(effectiveLogger(instruments))
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    logger,
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
