package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	jobmetrics "github.com/odyssey-erp/ticketdash/internal/jobs"
	"github.com/odyssey-erp/ticketdash/internal/tickets"
	"github.com/odyssey-erp/ticketdash/internal/tickets/filter"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DatasetSource re-reads the ticket dataset from its backing file.
type DatasetSource interface {
	Reload(ctx context.Context) (*tickets.Table, error)
}

// DashboardBuilder computes and caches dashboards.
type DashboardBuilder interface {
	Build(ctx context.Context, table *tickets.Table, sel filter.Selection) (analytics.Dashboard, error)
	Invalidate(ctx context.Context) error
}

// DatasetWarmupJob reloads the dataset and pre-populates the dashboard cache
// for the default selection.
type DatasetWarmupJob struct {
	Source     DatasetSource
	Dashboards DashboardBuilder
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	clock      func() time.Time
}

// NewDatasetWarmupJob wires dependencies for the warmup handler.
func NewDatasetWarmupJob(source DatasetSource, dashboards DashboardBuilder, logger *slog.Logger, metrics *jobmetrics.Metrics) *DatasetWarmupJob {
	return &DatasetWarmupJob{
		Source:     source,
		Dashboards: dashboards,
		Logger:     logger,
		Metrics:    metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dataset warmup tasks.
func (j *DatasetWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Source == nil {
		return errors.New("dataset warmup: handler not configured")
	}
	var payload DatasetWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskDatasetWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("request_id", payload.RequestID))
	logger.Info("starting dataset warmup")
	start := j.now()

	table, err := j.Source.Reload(ctx)
	if err != nil {
		resultErr = err
		logger.Error("reload dataset", slog.Any("error", err))
		return resultErr
	}
	j.metrics().SetRows(TaskDatasetWarmup, table.Len())

	if j.Dashboards == nil {
		return resultErr
	}
	if payload.Invalidate {
		if err := j.Dashboards.Invalidate(ctx); err != nil {
			resultErr = err
			logger.Error("invalidate dashboards", slog.Any("error", err))
			return resultErr
		}
	}
	if table.Len() == 0 {
		logger.Info("dataset is empty, nothing to warm")
		return resultErr
	}

	warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	dash, err := j.Dashboards.Build(warmCtx, table, filter.DefaultSelection(table))
	if err != nil {
		resultErr = err
		logger.Error("build default dashboard", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed dataset warmup",
		slog.String("source", table.Source()),
		slog.Int("rows", table.Len()),
		slog.Int("tickets", dash.Metrics.TotalTickets),
		slog.Duration("duration", j.now().Sub(start)),
	)
	return resultErr
}

func (j *DatasetWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDatasetWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDatasetWarmup))
}

func (j *DatasetWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DatasetWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
