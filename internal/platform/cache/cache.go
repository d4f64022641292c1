// Package cache provides the redis-backed workflow process id cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pgr:workflow:process:"

// DefaultTTL applies when NewProcessCache is given a non-positive TTL.
const DefaultTTL = 10 * time.Minute

// ProcessCache maps workflow process codes to process ids.
type ProcessCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewProcessCache creates a cache over client.
func NewProcessCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *ProcessCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessCache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "process_cache")),
	}
}

// Get returns the cached id for code. A miss is ("", false, nil).
func (c *ProcessCache) Get(ctx context.Context, code string) (string, bool, error) {
	id, err := c.client.Get(ctx, keyPrefix+code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("process cache get: %w", err)
	}
	return id, true, nil
}

// Set stores id for code with the configured TTL.
func (c *ProcessCache) Set(ctx context.Context, code, id string) error {
	if err := c.client.Set(ctx, keyPrefix+code, id, c.ttl).Err(); err != nil {
		return fmt.Errorf("process cache set: %w", err)
	}
	return nil
}

// Invalidate drops the entry for code.
func (c *ProcessCache) Invalidate(ctx context.Context, code string) error {
	return c.client.Del(ctx, keyPrefix+code).Err()
}

// Connect opens a redis client and pings it within 5 seconds.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
