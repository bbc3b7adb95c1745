package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hangarops/hangar-backend/api/routes"
	"github.com/hangarops/hangar-backend/internal/archive"
	"github.com/hangarops/hangar-backend/internal/archiveguard"
	"github.com/hangarops/hangar-backend/internal/assignments"
	"github.com/hangarops/hangar-backend/internal/registry"
	"github.com/hangarops/hangar-backend/internal/stockledger"
	"github.com/hangarops/hangar-backend/internal/worklog"
	"github.com/hangarops/hangar-backend/internal/workorders"
	"github.com/hangarops/hangar-backend/pkg/config"
	"github.com/hangarops/hangar-backend/pkg/db"
	"github.com/hangarops/hangar-backend/pkg/instance"
	"github.com/hangarops/hangar-backend/pkg/logger"
	"github.com/hangarops/hangar-backend/pkg/metrics"
	"github.com/hangarops/hangar-backend/pkg/migrate"
	"github.com/hangarops/hangar-backend/pkg/outbox"
	"github.com/hangarops/hangar-backend/pkg/redis"
	"github.com/hangarops/hangar-backend/pkg/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	dbClient = dbClient.WithRetryAttempts(cfg.Ledger.TxRetryAttempts)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var idempotencyStore redis.IdempotencyStore
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		idempotencyStore = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotent replay disabled")
	}

	tracer, err := telemetry.NewTracer(context.Background(), cfg.Tracing, "hangar-api", cfg.App.Version, cfg.App.Env)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap tracing", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	woMetrics := metrics.NewWorkOrderMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	conn := dbClient.DB()
	ledger, err := stockledger.NewLedger(stockledger.NewRepository(conn), woMetrics)
	exitOnErr(logg, "failed to create stock ledger", err)

	registryRepo := registry.NewRepository(conn)
	registryService, err := registry.NewService(registryRepo)
	exitOnErr(logg, "failed to create registry service", err)

	assignmentRepo := assignments.NewRepository(conn)
	assignmentStore, err := assignments.NewStore(assignmentRepo, ledger, registryService)
	exitOnErr(logg, "failed to create assignment store", err)

	workOrderService, err := workorders.NewService(workorders.Deps{
		Repo:        workorders.NewRepository(conn),
		Tx:          dbClient,
		Registry:    registryService,
		Assignments: assignmentStore,
		Outbox:      outbox.NewService(outbox.NewRepository(conn), logg),
		Metrics:     woMetrics,
		Tracer:      tracer,
		Logger:      logg,
	})
	exitOnErr(logg, "failed to create work order service", err)

	workLogService, err := worklog.NewService(worklog.NewRepository(conn), dbClient, registryService, assignmentRepo, logg)
	exitOnErr(logg, "failed to create work log service", err)

	guard, err := archiveguard.New(conn, woMetrics)
	exitOnErr(logg, "failed to create archive guard", err)

	archiveService, err := archive.NewService(dbClient, registryRepo, guard, logg)
	exitOnErr(logg, "failed to create archive service", err)

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"version":  cfg.App.Version,
		"instance": instance.GetID("local"),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, idempotencyStore, reg, httpMetrics,
			workOrderService, workLogService, archiveService, guard, ledger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "tracer shutdown failed", err)
	}
	logg.Info(ctx, "api server stopped")
}

func exitOnErr(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
