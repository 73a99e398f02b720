package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ronak-creation/storefront/internal/jobs"
	"github.com/ronak-creation/storefront/internal/media"
)

// MediaCleanupJob deletes images from object storage after their product or
// banner was replaced or removed.
type MediaCleanupJob struct {
	Store   media.Store
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewMediaCleanupJob wires dependencies for the cleanup handler.
func NewMediaCleanupJob(store media.Store, logger *slog.Logger, metrics *jobmetrics.Metrics) *MediaCleanupJob {
	return &MediaCleanupJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes TaskMediaCleanup tasks. Ids that fail are reported as one
// error so asynq retries the task; deletes are idempotent.
func (j *MediaCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("media cleanup: handler not configured")
	}
	var payload MediaCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("media cleanup: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	var errs []error
	deleted := 0
	for _, id := range payload.PublicIDs {
		if err := j.Store.Delete(ctx, id); err != nil {
			j.logger().Warn("delete media asset", slog.String("public_id", id), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		deleted++
	}
	j.Metrics.AddAssets("deleted", deleted)
	j.Metrics.AddAssets("failed", len(errs))
	j.logger().Info("media cleanup finished", slog.Int("deleted", deleted), slog.Int("failed", len(errs)))
	return errors.Join(errs...)
}

func (j *MediaCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
