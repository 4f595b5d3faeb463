package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/basecruz/stockbridge/internal/app"
	"github.com/basecruz/stockbridge/internal/catalog"
	"github.com/basecruz/stockbridge/internal/crossref"
	"github.com/basecruz/stockbridge/internal/inventory"
	jobmetrics "github.com/basecruz/stockbridge/internal/jobs"
	"github.com/basecruz/stockbridge/internal/observability"
	"github.com/basecruz/stockbridge/internal/platform/cache"
	"github.com/basecruz/stockbridge/internal/reconcile"
	"github.com/basecruz/stockbridge/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if app.InTestMode() {
		logger.Info("test mode enabled, skipping server startup")
		return
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	services := app.NewServices(cfg, logger, metrics)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	configs := jobs.NewConfigStore(redisClient)
	runs := jobs.NewRunStore(redisClient)
	manager := jobs.NewCronManager(configs, scheduler, logger)
	if err := manager.Restore(ctx); err != nil {
		logger.Warn("restore cron jobs", slog.Any("error", err))
	}
	if err := scheduler.Start(); err != nil {
		logger.Error("start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer scheduler.Shutdown()

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	runner := jobs.NewRunner(services.Reconcile, services.Shopify, runs, jobmetrics.NewMetrics(metrics.Registerer()), logger)
	jobHandler := jobs.NewHandler(jobs.HandlerConfig{
		Manager:   manager,
		Runner:    runner,
		Runs:      runs,
		Enqueuer:  jobsClient,
		Inspector: inspector,
		Logger:    logger,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		CatalogHandler:   catalog.NewHandler(logger, services.Catalog),
		CrossRefHandler:  crossref.NewHandler(logger, services.CrossRef),
		InventoryHandler: inventory.NewHandler(logger, services.Stock, services.Prices),
		ReconcileHandler: reconcile.NewHandler(logger, services.Reconcile),
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
