package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	platformredis "pinmap/internal/platform/redis"
)

// Redis shares verdicts across replicas. Unlike the in-memory store it takes
// a TTL: cross-process persistence without expiry would make stale verdicts
// permanent across deploys. Every Redis failure degrades to a cache miss.
type Redis struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type RedisOption func(*Redis)

func WithLogger(logger *slog.Logger) RedisOption {
	return func(c *Redis) {
		c.logger = logger
	}
}

func NewRedis(client *platformredis.Client, ttl time.Duration, opts ...RedisOption) *Redis {
	c := &Redis{client: client, ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func key(handle string) string { return "verdict:" + handle }

func (c *Redis) Get(ctx context.Context, handle string) (Verdict, bool) {
	raw, err := c.client.Get(ctx, key(handle)).Bytes()
	if err != nil {
		return Verdict{}, false
	}
	var v Verdict
	if err := json.Unmarshal(raw, &v); err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "verdict cache entry corrupt", "handle", handle, "error", err)
		}
		return Verdict{}, false
	}
	return v, true
}

func (c *Redis) Put(ctx context.Context, handle string, v Verdict) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(handle), raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "verdict cache write failed", "handle", handle, "error", err)
	}
}
