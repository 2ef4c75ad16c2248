package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisTTL is how long an undrained backlog survives in Redis.
const DefaultRedisTTL = 30 * time.Minute

// RedisQueue keeps each desk's backlog in a Redis list so that any app
// instance can drain notifications produced by another.
type RedisQueue struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisQueue returns a queue storing lists under prefix+deskID.
func NewRedisQueue(client *redis.Client, prefix string, ttl time.Duration) *RedisQueue {
	if prefix == "" {
		prefix = "matchdesk:toasts:"
	}
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisQueue{client: client, prefix: prefix, ttl: ttl}
}

func (q *RedisQueue) key(deskID string) string {
	return q.prefix + deskID
}

// Push appends n, trims the backlog and refreshes its expiry in one transaction.
func (q *RedisQueue) Push(ctx context.Context, deskID string, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	key := q.key(deskID)
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.LTrim(ctx, key, -maxPerDesk, -1)
		pipe.Expire(ctx, key, q.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}

// Drain reads and deletes the backlog atomically.
func (q *RedisQueue) Drain(ctx context.Context, deskID string) ([]Notification, error) {
	key := q.key(deskID)

	var rng *redis.StringSliceCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rng = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain notifications: %w", err)
	}

	raw := rng.Val()
	out := make([]Notification, 0, len(raw))
	for _, s := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(s), &n); err != nil {
			// Skip entries written by an incompatible version.
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// NewRedisClient parses url, connects and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
