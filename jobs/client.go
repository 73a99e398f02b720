package jobs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// RedisConnOpt turns REDIS_ADDR into asynq connection options. Both host:port
// and redis:// URLs are accepted.
func RedisConnOpt(addr string) (asynq.RedisConnOpt, error) {
	if strings.Contains(addr, "://") {
		return asynq.ParseRedisURI(addr)
	}
	if addr == "" {
		return nil, errors.New("jobs: empty redis address")
	}
	return asynq.RedisClientOpt{Addr: addr}, nil
}

// Client enqueues storefront tasks. It satisfies media.Cleaner.
type Client struct {
	client *asynq.Client
}

func NewClient(redisOpts asynq.RedisConnOpt) (*Client, error) {
	if redisOpts == nil {
		return nil, errors.New("jobs: redis options required")
	}
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// ScheduleCleanup enqueues one media cleanup task for the non-empty ids.
func (c *Client) ScheduleCleanup(ctx context.Context, publicIDs ...string) error {
	ids := make([]string, 0, len(publicIDs))
	for _, id := range publicIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	task, err := NewMediaCleanupTask(MediaCleanupPayload{PublicIDs: ids})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// EnqueueCatalogWarmup asks the worker to refill the catalog cache. Repeated
// calls within a minute collapse into one task.
func (c *Client) EnqueueCatalogWarmup(ctx context.Context) (*asynq.TaskInfo, error) {
	info, err := c.client.EnqueueContext(ctx, NewCatalogWarmupTask(), asynq.Queue(QueueDefault), asynq.Unique(time.Minute))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil, nil
	}
	return info, err
}

func (c *Client) Close() error {
	return c.client.Close()
}
