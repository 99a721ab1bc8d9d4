package jobs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Enqueuer is the subset of asynq.Client used to submit tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client submits jobs to the queue.
type Client struct {
	client Enqueuer
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	if redisOpts.Addr == "" {
		return nil, errors.New("jobs: redis address required")
	}
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// NewClientWith wraps an existing enqueuer.
func NewClientWith(enqueuer Enqueuer) *Client {
	return &Client{client: enqueuer}
}

// EnqueueDatasetWarmup enqueues a dataset warmup task. The request id doubles
// as the task id so a retried submission is deduplicated.
func (c *Client) EnqueueDatasetWarmup(ctx context.Context, payload DatasetWarmupPayload) (*asynq.TaskInfo, error) {
	if payload.RequestID == "" {
		payload.RequestID = uuid.NewString()
	}
	task, err := NewDatasetWarmupTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.TaskID(payload.RequestID))
}

// Close releases client resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
