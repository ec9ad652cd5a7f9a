// Package redis holds the Redis connections a service opens for its stream
// broker and its read-model caches.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eaglemart/platform/shared/config"
)

const defaultPoolSize = 10

type Client struct {
	*redis.Client
}

// Options builds the connection options for one named connection. The name
// is sent with CLIENT SETNAME so CLIENT LIST shows which service owns it.
func Options(name string, cfg config.RedisConfig) *redis.Options {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   name,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     poolSize,
	}
}

// NewClient opens the connection and pings it; an unreachable server is an
// error rather than a lazily failing client.
func NewClient(ctx context.Context, name string, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(Options(name, cfg))

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s as %s: %w", cfg.Addr, name, err)
	}
	return &Client{Client: rdb}, nil
}
