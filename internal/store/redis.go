package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/scorelayer/scoring/internal/config"
)

// RedisBackend implements Backend over a redis server. The underlying
// client pools connections and is safe for concurrent use.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects a backend according to the redis configuration.
// No I/O happens here; the first operation dials lazily.
func NewRedisBackend(cfg config.RedisConfig) *RedisBackend {
	return &RedisBackend{
		client: redis.NewClient(&redis.Options{
			Addr:        cfg.Addr,
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: cfg.DialTimeout.Std(),
		}),
	}
}

// Get implements Backend.
func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set implements Backend.
func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	return b.client.Set(ctx, key, value, 0).Err()
}

// SetEx implements Backend.
func (b *RedisBackend) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.SetEX(ctx, key, value, ttl).Err()
}

// Ping implements Backend.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
