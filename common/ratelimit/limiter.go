package ratelimit

import (
	"context"
	"fmt"
	"time"

	rediscommon "github.com/openshelf/catalog/common/redis"
)

// Result contains the outcome of a rate limit check
type Result struct {
	Allowed           bool
	CurrentCount      int64
	Limit             int64
	RetryAfterSeconds int64
}

// Limiter provides per-editor fixed-window rate limiting on edit
// submissions. The window counter lives in Redis so multiple catalog
// instances share one budget.
type Limiter struct {
	redis  *rediscommon.Client
	window time.Duration
}

// NewLimiter creates a rate limiter with a one-minute window
func NewLimiter(redisClient *rediscommon.Client) *Limiter {
	return &Limiter{
		redis:  redisClient,
		window: time.Minute,
	}
}

// CheckEditorLimit checks the edit rate limit for a specific editor
func (l *Limiter) CheckEditorLimit(ctx context.Context, editorID int64, limit int64) (*Result, error) {
	key := fmt.Sprintf("rate_limit:editor:%d", editorID)
	return l.check(ctx, key, limit)
}

func (l *Limiter) check(ctx context.Context, key string, limit int64) (*Result, error) {
	count, err := l.redis.IncrementWindow(ctx, key, l.window)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	if count <= limit {
		return &Result{
			Allowed:      true,
			CurrentCount: count,
			Limit:        limit,
		}, nil
	}

	ttl, err := l.redis.WindowTTL(ctx, key)
	if err != nil {
		ttl = l.window
	}

	return &Result{
		Allowed:           false,
		CurrentCount:      count,
		Limit:             limit,
		RetryAfterSeconds: int64(ttl.Seconds()),
	}, nil
}
