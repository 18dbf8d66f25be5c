package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// WindowLimiter is a fixed-window counter shared by every API instance.
type WindowLimiter struct {
	rdb    redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
}

func NewWindowLimiter(rdb redis.Cmdable, prefix string, limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{rdb: rdb, prefix: prefix, limit: int64(limit), window: window}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + ":" + key

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis limiter: %w", err)
	}
	return incr.Val() <= l.limit, nil
}
