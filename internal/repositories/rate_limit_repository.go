package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitRepository provides an atomic way to check and increment rate limit counters.
type RateLimitRepository interface {
	// IncrementAndCheck increments the fixed-window counter for key and
	// returns true while the count is within limit.
	IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type redisRateLimitRepo struct {
	client *redis.Client
	prefix string
}

func NewRedisRateLimitRepository(client *redis.Client, prefix string) RateLimitRepository {
	return &redisRateLimitRepo{client: client, prefix: prefix}
}

func (r *redisRateLimitRepo) IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	fullKey := r.prefix + ":ratelimit:" + key

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pipe.ExpireNX(ctx, fullKey, window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %q: %w", key, err)
	}
	return incr.Val() <= int64(limit), nil
}

// NewRedisClient builds a client; callers must Ping before relying on it.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func PingRedis(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
