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

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	"github.com/odyssey-erp/ticketdash/internal/analytics/export"
	analytichttp "github.com/odyssey-erp/ticketdash/internal/analytics/http"
	"github.com/odyssey-erp/ticketdash/internal/analytics/svg"
	"github.com/odyssey-erp/ticketdash/internal/app"
	"github.com/odyssey-erp/ticketdash/internal/observability"
	"github.com/odyssey-erp/ticketdash/internal/platform/cache"
	"github.com/odyssey-erp/ticketdash/internal/tickets/loader"
	"github.com/odyssey-erp/ticketdash/internal/view"
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
	metrics := observability.NewMetrics()

	ticketLoader := loader.New(loader.NewMetrics(metrics.Registerer()))
	dataset := loader.NewSource(ticketLoader, cfg.DatasetPath)
	if table, err := dataset.Dataset(ctx); err != nil {
		logger.Warn("initial dataset load", slog.String("path", cfg.DatasetPath), slog.Any("error", err))
	} else {
		logger.Info("dataset loaded", slog.String("path", cfg.DatasetPath), slog.Int("rows", table.Len()))
	}

	var dashboardCache *analytics.Cache
	var jobHandler *jobs.Handler
	if cfg.Redis().Enabled() {
		redisClient, err := cache.New(ctx, cfg.Redis())
		if err != nil {
			logger.Warn("redis unavailable, dashboards will not be cached", slog.Any("error", err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
			dashboardCache = analytics.NewCache(redisClient, cfg.CacheTTL).WithMetrics(metrics.Registerer())
			if err := dashboardCache.ListenForInvalidation(ctx, "", ticketLoader.Invalidate); err != nil {
				logger.Warn("subscribe dataset invalidation", slog.Any("error", err))
			}

			inspector := asynq.NewInspector(cfg.Redis().Queue())
			defer func() {
				if err := inspector.Close(); err != nil {
					logger.Warn("inspector close", slog.Any("error", err))
				}
			}()
			jobHandler = jobs.NewHandler(inspector, logger)
		}
	}

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	dashboardService := analytics.NewService(dashboardCache).WithLogger(logger)
	pdfExporter := &export.PDFExporter{Endpoint: cfg.GotenbergURL, Client: &http.Client{Timeout: 30 * time.Second}}
	dashboardHandler := analytichttp.NewHandler(logger, dataset, dashboardService, templates, svg.Renderer{}, pdfExporter)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
		Dataset:          dataset,
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
