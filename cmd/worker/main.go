package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	"github.com/odyssey-erp/ticketdash/internal/app"
	jobmetrics "github.com/odyssey-erp/ticketdash/internal/jobs"
	"github.com/odyssey-erp/ticketdash/internal/platform/cache"
	"github.com/odyssey-erp/ticketdash/internal/tickets/loader"
	"github.com/odyssey-erp/ticketdash/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	dataset := loader.NewSource(loader.New(loader.NewMetrics(nil)), cfg.DatasetPath)
	dashboardService := analytics.NewService(analytics.NewCache(redisClient, cfg.CacheTTL)).WithLogger(logger)
	warmupJob := jobs.NewDatasetWarmupJob(dataset, dashboardService, logger, jobmetrics.NewMetrics(nil))

	warmupTask, err := jobs.NewDatasetWarmupTask(jobs.DatasetWarmupPayload{RequestID: "cron", Invalidate: true})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	var cron []jobs.CronRegistration
	if cfg.WarmupCron != "" {
		cron = append(cron, jobs.CronRegistration{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cfg.Redis().Queue(),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDatasetWarmup, Handler: warmupJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("dataset", cfg.DatasetPath), slog.String("warmup_cron", cfg.WarmupCron))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
