package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter backed by Redis. INCR+EXPIRE run in
// one pipeline, so the count stays correct across server instances and under
// concurrent duplicates; the window resets when the key expires.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	rkey := "ratelimit:" + key

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, rkey)
	pipe.ExpireNX(ctx, rkey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	if incr.Val() <= int64(l.limit) {
		return Decision{Allowed: true}, nil
	}

	ttl, err := l.rdb.TTL(ctx, rkey).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	return Decision{RetryAfter: ttl}, nil
}
