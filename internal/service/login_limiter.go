package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/classroom-backend/internal/config"
)

// LoginLimiter tracks consecutive login failures per identifier.
type LoginLimiter interface {
	Locked(ctx context.Context, identifier string) (bool, error)
	RecordFailure(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}

// RedisLoginLimiter locks an identifier after maxAttempts failures within lockFor.
// The window starts at the first failure and the counter expires with it.
type RedisLoginLimiter struct {
	rdb         *redis.Client
	maxAttempts int
	lockFor     time.Duration
}

// NewRedisLoginLimiter creates a RedisLoginLimiter.
func NewRedisLoginLimiter(rdb *redis.Client, maxAttempts int, lockFor time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{rdb: rdb, maxAttempts: maxAttempts, lockFor: lockFor}
}

func (l *RedisLoginLimiter) Locked(ctx context.Context, identifier string) (bool, error) {
	if l.maxAttempts <= 0 {
		return false, nil
	}
	n, err := l.rdb.Get(ctx, config.CacheKey.LoginFailuresKey(identifier)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("read login failures: %w", err)
	}
	return n >= l.maxAttempts, nil
}

func (l *RedisLoginLimiter) RecordFailure(ctx context.Context, identifier string) error {
	key := config.CacheKey.LoginFailuresKey(identifier)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.lockFor)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	if incr.Val() >= int64(l.maxAttempts) {
		// Lock runs for the full duration from the failure that tripped it.
		return l.rdb.Expire(ctx, key, l.lockFor).Err()
	}
	return nil
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, identifier string) error {
	return l.rdb.Del(ctx, config.CacheKey.LoginFailuresKey(identifier)).Err()
}
