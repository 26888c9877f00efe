// Package ratelimit provides shared counter stores for the rate limit middleware.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/rollcall/internal/middleware"
)

const defaultKeyPrefix = "rollcall:ratelimit:"

var _ middleware.RateLimitStore = (*RedisStore)(nil)

// RedisStore keeps fixed-window counters in Redis so every API replica
// shares the same limits.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisStoreConfig contains configuration for RedisStore.
type RedisStoreConfig struct {
	Client    *redis.Client
	KeyPrefix string
}

// NewRedisStore creates a new Redis-backed rate limit store.
func NewRedisStore(cfg RedisStoreConfig) *RedisStore {
	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	return &RedisStore{
		client:    cfg.Client,
		keyPrefix: keyPrefix,
	}
}

// Increment bumps the counter and starts the window on the first hit.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := s.keyPrefix + key

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		// NX keeps the TTL of a window that is already running
		pipe.ExpireNX(ctx, fullKey, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	return incr.Val(), nil
}

// GetCount returns the current count, zero when no window is open.
func (s *RedisStore) GetCount(ctx context.Context, key string) (int64, error) {
	count, err := s.client.Get(ctx, s.keyPrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}

	return count, nil
}

// GetTTL returns the remaining window length. Missing keys report zero.
func (s *RedisStore) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read ttl: %w", err)
	}
	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}

// Ping checks the connection, used by readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
