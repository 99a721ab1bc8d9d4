package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDatasetWarmup reloads the ticket dataset and pre-builds the default
	// dashboard into the cache.
	TaskDatasetWarmup = "dataset:warmup"
)

// DatasetWarmupPayload describes a warmup request.
type DatasetWarmupPayload struct {
	RequestID string `json:"request_id"`
	// Invalidate drops cached dashboards before warming.
	Invalidate bool `json:"invalidate"`
}

// NewDatasetWarmupTask constructs an Asynq task. A missing request id is
// generated.
func NewDatasetWarmupTask(payload DatasetWarmupPayload) (*asynq.Task, error) {
	if payload.RequestID == "" {
		payload.RequestID = uuid.NewString()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDatasetWarmup, data, asynq.MaxRetry(3)), nil
}
