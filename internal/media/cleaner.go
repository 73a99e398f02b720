package media

import (
	"context"
	"errors"
	"log/slog"
)

// Cleaner schedules deletion of assets no longer referenced by any row.
type Cleaner interface {
	ScheduleCleanup(ctx context.Context, publicIDs ...string) error
}

// InlineCleaner deletes assets synchronously. It stands in for the job queue
// when no worker is configured.
type InlineCleaner struct {
	Store  Store
	Logger *slog.Logger
}

// ScheduleCleanup implements Cleaner. Every id is attempted; the joined error
// reports the ones that failed.
func (c InlineCleaner) ScheduleCleanup(ctx context.Context, publicIDs ...string) error {
	if c.Store == nil {
		return nil
	}
	var errs []error
	for _, id := range publicIDs {
		if id == "" {
			continue
		}
		if err := c.Store.Delete(ctx, id); err != nil {
			if c.Logger != nil {
				c.Logger.Warn("delete media", slog.String("public_id", id), slog.Any("error", err))
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
