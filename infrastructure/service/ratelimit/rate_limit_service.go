package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/costra/costra/infrastructure/service/logger"
)

// Limiter is a fixed-window request counter backed by Redis. The window is
// enforced with a key TTL; counting and expiry are pipelined so one round
// trip covers both.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type redisLimiter struct {
	client *redis.Client
	logger logger.Logger
}

// NewRedisLimiter builds a limiter on top of an already-connected client.
func NewRedisLimiter(client *redis.Client, log logger.Logger) Limiter {
	return &redisLimiter{client: client, logger: log}
}

func (l *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	counterKey := fmt.Sprintf("ratelimit:%s", key)

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, counterKey)
	pipe.Expire(ctx, counterKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	count := incr.Val()
	allowed := count <= int64(limit)
	if !allowed {
		l.logger.Warn(ctx, "Rate limit exceeded", map[string]interface{}{
			"key":   key,
			"count": count,
			"limit": limit,
		})
	}
	return allowed, nil
}

// NoopLimiter allows everything; used when rate limiting is disabled.
type NoopLimiter struct{}

func (NoopLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}
