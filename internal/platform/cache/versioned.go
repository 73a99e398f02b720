package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Outcome describes how FetchJSON satisfied a request.
type Outcome string

const (
	OutcomeHit      Outcome = "hit"
	OutcomeMiss     Outcome = "miss"
	OutcomeBypass   Outcome = "bypass"
	OutcomeDegraded Outcome = "degraded"
)

// Versioned is a JSON cache whose entries are invalidated wholesale by bumping
// a version counter stored next to them. A nil *Versioned is valid and always
// calls the loader.
type Versioned struct {
	client     *redis.Client
	namespace  string
	ttl        time.Duration
	versionKey string
	group      singleflight.Group
}

// NewVersioned builds a cache for the given namespace.
func NewVersioned(client *redis.Client, namespace string, ttl time.Duration) *Versioned {
	return &Versioned{
		client:     client,
		namespace:  namespace,
		ttl:        ttl,
		versionKey: namespace + ":version",
	}
}

// Version returns the current cache version, initialising it when missing.
func (c *Versioned) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, c.versionKey).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		if err := c.client.SetNX(ctx, c.versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, c.versionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes a cache key with the namespace and current version.
func (c *Versioned) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%d", c.namespace, joined, ver), nil
}

// FetchJSON loads a cached value into dest or populates it using loader.
// Concurrent misses for the same key share a single loader call. Redis
// failures degrade to calling the loader directly.
func (c *Versioned) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) (Outcome, error) {
	if loader == nil {
		return OutcomeBypass, errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return OutcomeBypass, loadInto(ctx, dest, loader)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(payload, dest); jsonErr == nil {
			return OutcomeHit, nil
		}
	case !errors.Is(err, redis.Nil):
		return OutcomeDegraded, loadInto(ctx, dest, loader)
	}

	raw, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		// A failed write only costs a later miss.
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
		return raw, nil
	})
	if err != nil {
		return OutcomeMiss, err
	}
	return OutcomeMiss, json.Unmarshal(raw.([]byte), dest)
}

// Bump invalidates every entry by incrementing the version. Readers on every
// instance pick the new version up on their next key build.
func (c *Versioned) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, c.versionKey).Err()
}

func loadInto(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
