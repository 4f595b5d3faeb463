package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/basecruz/stockbridge/internal/app"
	"github.com/basecruz/stockbridge/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	services := app.NewServices(cfg, logger, nil)
	runner := jobs.NewRunner(services.Reconcile, services.Shopify, jobs.NewRunStore(redisClient), nil, logger)

	var schedule []jobs.CronRegistration
	if cfg.StockSyncCron != "" {
		if err := jobs.ValidateExpression(cfg.StockSyncCron, cfg.CronTimezone); err != nil {
			logger.Error("invalid STOCK_SYNC_CRON", slog.Any("error", err))
			os.Exit(1)
		}
		task, err := jobs.NewJobTask(jobs.JobSyncStock, "cron")
		if err != nil {
			logger.Error("build stock sync task", slog.Any("error", err))
			os.Exit(1)
		}
		schedule = append(schedule, jobs.CronRegistration{Spec: jobs.CronSpec(cfg.StockSyncCron, cfg.CronTimezone), Task: task})
		logger.Info("stock sync scheduled", slog.String("cron", cfg.StockSyncCron), slog.String("timezone", cfg.CronTimezone))
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStockSync, Handler: runner.HandleTask},
			{Type: jobs.TaskProductsSync, Handler: runner.HandleTask},
		},
		Cron: schedule,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
