// Package lock provides the cross-process product locks taken before a
// stock mutation opens its transaction.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"stockcore/internal/core/apperror"
	"stockcore/internal/domain/inventory"
	"stockcore/pkg/logger"
)

var _ inventory.Locker = (*RedisLocker)(nil)

// Config for the redis locker.
type Config struct {
	Addr     string
	Password string
	DB       int

	// TTL bounds how long a crashed holder can block a product.
	TTL time.Duration
	// Wait is how long Lock keeps retrying a held key.
	Wait time.Duration
}

// RedisLocker takes one redis lock per key, in the order given.
type RedisLocker struct {
	client *redis.Client
	locker *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker connects to redis and verifies it with a ping.
func NewRedisLocker(ctx context.Context, cfg Config) (*RedisLocker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisLockerFromClient(rdb, cfg.TTL, cfg.Wait), nil
}

// NewRedisLockerFromClient wraps an existing client.
func NewRedisLockerFromClient(rdb *redis.Client, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &RedisLocker{
		client: rdb,
		locker: redislock.New(rdb),
		ttl:    ttl,
		wait:   wait,
	}
}

// Lock acquires every key or none. A key still held after the wait yields
// LOCK_NOT_OBTAINED.
func (l *RedisLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	const backoff = 50 * time.Millisecond
	retries := int(l.wait / backoff)

	held := make([]*redislock.Lock, 0, len(keys))
	release := func() {
		// Background context: release must run even when ctx was cancelled.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				logger.Warn(ctx, "release product lock failed", "key", held[i].Key(), "error", err)
			}
		}
	}

	for _, key := range keys {
		lk, err := l.locker.Obtain(ctx, key, l.ttl, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(backoff), retries),
		})
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, apperror.NewLockNotObtained(key)
			}
			return nil, fmt.Errorf("obtain lock %s: %w", key, err)
		}
		held = append(held, lk)
	}
	return release, nil
}

// Ping checks the redis connection.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
