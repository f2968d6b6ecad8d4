package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisQueue is a job queue backed by a Redis list (LPUSH / BRPOP)
type RedisQueue struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisQueue connects to redisURL, retrying the initial ping with
// exponential backoff
func NewRedisQueue(ctx context.Context, redisURL, key string, logger *zap.Logger) (*RedisQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	pingFn := func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("⏳ Redis not ready, retrying", zap.String("addr", opts.Addr), zap.Error(err))
			return err
		}
		return nil
	}
	if err := backoff.Retry(pingFn, backoff.WithContext(bo, ctx)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("✅ Connected to Redis queue", zap.String("addr", opts.Addr), zap.String("key", key))
	return NewRedisQueueWithClient(client, key, logger), nil
}

// NewRedisQueueWithClient wraps an existing client
func NewRedisQueueWithClient(client *redis.Client, key string, logger *zap.Logger) *RedisQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisQueue{client: client, key: key, logger: logger}
}

// Enqueue pushes a job id
func (q *RedisQueue) Enqueue(ctx context.Context, jobID string) error {
	if err := q.client.LPush(ctx, q.key, jobID).Err(); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return ErrQueueClosed
		}
		return fmt.Errorf("failed to enqueue job %s: %w", jobID, err)
	}
	return nil
}

// Dequeue pops the oldest job id, blocking up to timeout
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		switch {
		case errors.Is(err, redis.Nil):
			return "", nil
		case errors.Is(err, redis.ErrClosed):
			return "", ErrQueueClosed
		}
		return "", fmt.Errorf("failed to dequeue: %w", err)
	}
	// BRPOP replies with [key, value]
	if len(res) != 2 {
		return "", fmt.Errorf("unexpected BRPOP reply: %v", res)
	}
	return res[1], nil
}

// Close closes the Redis client
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
