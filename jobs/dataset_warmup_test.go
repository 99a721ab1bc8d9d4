package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ticketdash/internal/analytics"
	jobmetrics "github.com/odyssey-erp/ticketdash/internal/jobs"
	"github.com/odyssey-erp/ticketdash/internal/tickets"
	"github.com/odyssey-erp/ticketdash/internal/tickets/filter"
)

type stubSource struct {
	table *tickets.Table
	err   error
	calls int
}

func (s *stubSource) Reload(ctx context.Context) (*tickets.Table, error) {
	s.calls++
	return s.table, s.err
}

type recordingBuilder struct {
	built       []filter.Selection
	invalidated int
}

func (b *recordingBuilder) Build(ctx context.Context, table *tickets.Table, sel filter.Selection) (analytics.Dashboard, error) {
	b.built = append(b.built, sel)
	return analytics.Summarize(table), nil
}

func (b *recordingBuilder) Invalidate(ctx context.Context) error {
	b.invalidated++
	return nil
}

type stubEnqueuer struct {
	task *asynq.Task
	opts []asynq.Option
}

func (s *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.task = task
	s.opts = opts
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

func sampleTable() *tickets.Table {
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }
	return tickets.FromTickets("Raw_Data.xlsx", []tickets.Ticket{
		{Date: day(1), Zone: "Zone 2", Branch: "Pune", Category: "Hardware", EngineerStatus: tickets.StatusClosed},
		{Date: day(4), Zone: "Zone 3", Branch: "Mumbai", Category: "Software", EngineerStatus: tickets.StatusOpen},
	})
}

func newWarmupTask(t *testing.T, payload DatasetWarmupPayload) *asynq.Task {
	t.Helper()
	task, err := NewDatasetWarmupTask(payload)
	require.NoError(t, err)
	return task
}

func TestDatasetWarmupBuildsDefaultSelection(t *testing.T) {
	source := &stubSource{table: sampleTable()}
	builder := &recordingBuilder{}
	job := NewDatasetWarmupJob(source, builder, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), newWarmupTask(t, DatasetWarmupPayload{Invalidate: true}))
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 1, builder.invalidated)
	require.Len(t, builder.built, 1)
	sel := builder.built[0]
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), sel.StartDate)
	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), sel.EndDate)
	assert.Equal(t, []string{"Pune", "Mumbai"}, sel.Branches)
}

func TestDatasetWarmupSkipsEmptyDataset(t *testing.T) {
	builder := &recordingBuilder{}
	job := NewDatasetWarmupJob(&stubSource{table: tickets.FromTickets("empty.xlsx", nil)}, builder, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, job.Handle(context.Background(), newWarmupTask(t, DatasetWarmupPayload{})))
	assert.Empty(t, builder.built)
	assert.Zero(t, builder.invalidated)
}

func TestDatasetWarmupPropagatesLoadErrors(t *testing.T) {
	loadErr := &tickets.DataLoadError{Source: "Raw_Data.xlsx", Missing: []string{"Priority"}}
	job := NewDatasetWarmupJob(&stubSource{err: loadErr}, &recordingBuilder{}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), newWarmupTask(t, DatasetWarmupPayload{}))
	assert.ErrorIs(t, err, tickets.ErrDataLoad)
}

func TestDatasetWarmupRejectsBadPayload(t *testing.T) {
	job := NewDatasetWarmupJob(&stubSource{table: sampleTable()}, &recordingBuilder{}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	err := job.Handle(context.Background(), asynq.NewTask(TaskDatasetWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var nilJob *DatasetWarmupJob
	assert.Error(t, nilJob.Handle(context.Background(), asynq.NewTask(TaskDatasetWarmup, nil)))
}

func TestNewDatasetWarmupTaskGeneratesRequestID(t *testing.T) {
	task := newWarmupTask(t, DatasetWarmupPayload{})
	assert.Equal(t, TaskDatasetWarmup, task.Type())

	var payload DatasetWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Len(t, payload.RequestID, 36)
}

func TestClientEnqueuesWarmupWithTaskID(t *testing.T) {
	enq := &stubEnqueuer{}
	client := NewClientWith(enq)

	info, err := client.EnqueueDatasetWarmup(context.Background(), DatasetWarmupPayload{RequestID: "req-1"})
	require.NoError(t, err)
	assert.Equal(t, TaskDatasetWarmup, info.Type)
	require.NotNil(t, enq.task)

	var payload DatasetWarmupPayload
	require.NoError(t, json.Unmarshal(enq.task.Payload(), &payload))
	assert.Equal(t, "req-1", payload.RequestID)
	assert.Len(t, enq.opts, 2)
	require.NoError(t, client.Close())
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func serveHealth(h *Handler) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rr
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	rr := serveHealth(NewHandler(nil, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"scheduled":0,"retry":0,"archived":0,"paused":false}`, rr.Body.String())
}

func TestJobsHealthReportsQueue(t *testing.T) {
	rr := serveHealth(NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3, Active: 1, Retry: 2}}, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3,"active":1,"scheduled":0,"retry":2,"archived":0,"paused":false}`, rr.Body.String())

	rr = serveHealth(NewHandler(stubInspector{err: errors.New("dial tcp: refused")}, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "dial tcp: refused")
}

func TestNewWorkerRejectsIncompleteRegistrations(t *testing.T) {
	_, err := NewWorker(WorkerConfig{Handlers: []TaskHandler{{Type: TaskDatasetWarmup}}})
	assert.Error(t, err)

	_, err = NewWorker(WorkerConfig{Cron: []CronRegistration{{Spec: "*/5 * * * *"}}})
	assert.Error(t, err)
}

func TestNewClientRequiresAddress(t *testing.T) {
	_, err := NewClient(asynq.RedisClientOpt{})
	assert.Error(t, err)
	assert.NoError(t, (*Client)(nil).Close())
}

func TestDatasetWarmupBuilderErrors(t *testing.T) {
	builder := &failingBuilder{err: errors.New("redis down")}
	job := NewDatasetWarmupJob(&stubSource{table: sampleTable()}, builder, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	err := job.Handle(context.Background(), newWarmupTask(t, DatasetWarmupPayload{}))
	assert.EqualError(t, err, "redis down")
}

type failingBuilder struct{ err error }

func (b *failingBuilder) Build(ctx context.Context, table *tickets.Table, sel filter.Selection) (analytics.Dashboard, error) {
	return analytics.Dashboard{}, b.err
}

func (b *failingBuilder) Invalidate(ctx context.Context) error { return nil }
