// Package rediscache stores aggregated feed snapshots in Redis so restarts
// and sibling instances can serve a recent feed without refetching.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

const keyPrefix = "oceaneye:feed:"

// Commander is the subset of redis.Cmdable the cache uses.
type Commander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Open returns a Redis client for addr, or nil when addr is empty.
func Open(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// FeedCache reads and writes feed snapshots with a fixed TTL.
type FeedCache struct {
	rdb    Commander
	ttl    time.Duration
	logger *slog.Logger
}

// NewFeedCache creates a cache over rdb.
func NewFeedCache(rdb Commander, ttl time.Duration, logger *slog.Logger) *FeedCache {
	return &FeedCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get returns the cached snapshot for feed. A missing key is a miss, not an
// error.
func (c *FeedCache) Get(ctx context.Context, feed string) ([]domain.FeedItem, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+feed).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", feed, err)
	}

	var items []domain.FeedItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.logger.Warn("discarding malformed feed snapshot", "feed", feed, "error", err)
		return nil, false, nil
	}
	return items, true, nil
}

// Set stores the snapshot for feed.
func (c *FeedCache) Set(ctx context.Context, feed string, items []domain.FeedItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode feed snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+feed, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", feed, err)
	}
	return nil
}

// CheckReadiness pings Redis.
func (c *FeedCache) CheckReadiness(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the underlying client when it supports closing.
func (c *FeedCache) Close() error {
	if cl, ok := c.rdb.(interface{ Close() error }); ok {
		return cl.Close()
	}
	return nil
}
