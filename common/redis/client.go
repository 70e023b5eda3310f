package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Client wraps redis.Client with the list and fixed-window operations the
// queue and rate limiter issue
type Client struct {
	redis  *redis.Client
	logger Logger
}

// NewClient creates a new Redis client wrapper
func NewClient(redisClient *redis.Client, logger Logger) *Client {
	return &Client{
		redis:  redisClient,
		logger: logger,
	}
}

// PushToList pushes values to the right of a list
func (c *Client) PushToList(ctx context.Context, key string, values ...interface{}) error {
	err := c.redis.RPush(ctx, key, values...).Err()
	if err != nil {
		c.logger.Error("redis RPUSH failed", "key", key, "error", err)
		return fmt.Errorf("failed to rpush to %s: %w", key, err)
	}
	c.logger.Debug("redis RPUSH", "key", key, "count", len(values))
	return nil
}

// BlockingPopList blocks and pops from a list (left side)
func (c *Client) BlockingPopList(ctx context.Context, timeout time.Duration, keys ...string) ([]string, error) {
	result, err := c.redis.BLPop(ctx, timeout, keys...).Result()
	if err == redis.Nil {
		// Timeout - not an error
		return nil, nil
	}
	if err != nil {
		c.logger.Error("redis BLPOP failed", "keys", keys, "error", err)
		return nil, fmt.Errorf("failed to blpop from %v: %w", keys, err)
	}
	c.logger.Debug("redis BLPOP", "keys", keys)
	return result, nil
}

// IncrementWindow increments a fixed-window counter, setting the window
// expiry on first increment. Returns the count after the increment.
func (c *Client) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("redis window increment failed", "key", key, "error", err)
		return 0, fmt.Errorf("failed to increment window %s: %w", key, err)
	}

	count, err := incr.Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read window count %s: %w", key, err)
	}

	c.logger.Debug("redis window INCR", "key", key, "count", count)
	return count, nil
}

// WindowTTL returns the remaining time of a fixed window
func (c *Client) WindowTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.redis.TTL(ctx, key).Result()
	if err != nil {
		c.logger.Error("redis TTL failed", "key", key, "error", err)
		return 0, fmt.Errorf("failed to get ttl for %s: %w", key, err)
	}
	return ttl, nil
}
