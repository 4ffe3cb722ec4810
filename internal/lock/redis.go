package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultRetryWait = 50 * time.Millisecond
	defaultRetries   = 40
)

// RedisLocker is a Locker shared by every API instance through redis
type RedisLocker struct {
	client *redislock.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLocker creates a RedisLocker on top of an existing redis client
func NewRedisLocker(rdb redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		prefix: prefix,
		ttl:    defaultLockTTL,
	}
}

// Connect parses a redis URL, verifies the connection and returns the client
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Lock obtains the redis lock for key, retrying for a short while before giving up
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := fmt.Sprintf("%s:%s", r.prefix, key)
	l, err := r.client.Obtain(ctx, lockKey, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(defaultRetryWait), defaultRetries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBusy, key)
	}
	if err != nil {
		return nil, err
	}

	return func() {
		// Release with a fresh context; the caller's may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Str("key", lockKey).Msg("Failed to release redis lock")
		}
	}, nil
}
