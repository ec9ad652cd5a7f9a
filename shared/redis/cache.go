package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ViewCache is a generic JSON-backed Redis cache for read model projections.
// Bind it to a specific view type T; each instance holds a Redis client, a key
// prefix and an optional TTL (pass 0 for keys that should not expire).
// A nil *ViewCache is a valid cache that never hits.
type ViewCache[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewViewCache[T any](client *goredis.Client, prefix string, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl}
}

// Get returns (nil, false) on any miss or deserialisation error.
func (c *ViewCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, c.prefix+id).Result()
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, false
	}
	return &v, true
}

// Set stores value under id. Errors are logged rather than returned: a cache
// write miss is non-fatal.
func (c *ViewCache[T]) Set(ctx context.Context, id string, value *T) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		slog.ErrorContext(ctx, "view cache marshal failed", slog.String("key", c.prefix+id), slog.Any("error", err))
		return
	}
	if err := c.client.Set(ctx, c.prefix+id, data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "view cache write failed", slog.String("key", c.prefix+id), slog.Any("error", err))
	}
}

func (c *ViewCache[T]) Delete(ctx context.Context, id string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, c.prefix+id).Err(); err != nil {
		slog.WarnContext(ctx, "view cache delete failed", slog.String("key", c.prefix+id), slog.Any("error", err))
	}
}
