package jobs

import (
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskMediaCleanup deletes uploaded images that are no longer referenced.
	TaskMediaCleanup = "media:cleanup"
	// TaskCatalogWarmup pre-populates the catalog cache for the home page.
	TaskCatalogWarmup = "catalog:warmup"
)

// MediaCleanupPayload lists the object storage ids to delete.
type MediaCleanupPayload struct {
	PublicIDs []string `json:"public_ids"`
}

// NewMediaCleanupTask constructs an Asynq task.
func NewMediaCleanupTask(payload MediaCleanupPayload) (*asynq.Task, error) {
	if len(payload.PublicIDs) == 0 {
		return nil, errors.New("media cleanup: no public ids")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMediaCleanup, data, asynq.MaxRetry(5)), nil
}

// NewCatalogWarmupTask constructs an Asynq task.
func NewCatalogWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskCatalogWarmup, nil, asynq.MaxRetry(1))
}
