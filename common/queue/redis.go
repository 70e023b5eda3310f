package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openshelf/catalog/common/logger"
	rediscommon "github.com/openshelf/catalog/common/redis"
)

// RedisQueue is a Redis-list backed queue. Each topic maps to one list;
// publishers RPUSH envelopes and subscribers BLPOP them, so an event is
// delivered to exactly one notifier instance.
type RedisQueue struct {
	redis *rediscommon.Client
	log   *logger.Logger
}

// envelope is the wire format for a queued message
type envelope struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// NewRedisQueue creates a Redis-backed queue
func NewRedisQueue(redisClient *rediscommon.Client, log *logger.Logger) *RedisQueue {
	return &RedisQueue{
		redis: redisClient,
		log:   log,
	}
}

func listKey(topic string) string {
	return "queue:" + topic
}

// Publish pushes a message onto the topic list
func (q *RedisQueue) Publish(ctx context.Context, topic string, key string, message []byte) error {
	payload, err := json.Marshal(envelope{Key: key, Value: message})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := q.redis.PushToList(ctx, listKey(topic), payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	q.log.Debug("published message", "topic", topic, "key", key)
	return nil
}

// Subscribe starts a BLPOP loop for the topic and feeds messages to handler
func (q *RedisQueue) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	q.log.Info("subscribing to topic", "topic", topic)

	go func() {
		for {
			select {
			case <-ctx.Done():
				q.log.Info("subscription cancelled", "topic", topic)
				return
			default:
			}

			result, err := q.redis.BlockingPopList(ctx, 5*time.Second, listKey(topic))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				q.log.Error("blpop failed", "topic", topic, "error", err)
				time.Sleep(time.Second)
				continue
			}

			// BLPOP returns [key, value]; a timeout returns nothing
			if len(result) != 2 {
				continue
			}

			var env envelope
			if err := json.Unmarshal([]byte(result[1]), &env); err != nil {
				q.log.Error("malformed envelope", "topic", topic, "error", err)
				continue
			}

			if err := handler(ctx, env.Key, env.Value); err != nil {
				q.log.Error("message handler error", "topic", topic, "key", env.Key, "error", err)
			}
		}
	}()

	return nil
}

// Close is a no-op; the Redis client is owned by the caller
func (q *RedisQueue) Close() error {
	return nil
}
