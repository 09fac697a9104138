package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is the fixed-window counter backed by Redis, for deployments
// with more than one instance. Each (namespace, key) pair maps to a counter
// that expires with the window.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: max, window: window}
}

// Allow increments the window counter and reports whether the hit is within
// the limit. The error is non-nil only when Redis itself fails; callers
// decide whether to fail open or closed.
func (l *RedisLimiter) Allow(ctx context.Context, namespace, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", namespace, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.max), nil
}
