package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/config"
)

// LoginLimiter counts failed logins per username in redis. A nil
// *LoginLimiter allows everything.
type LoginLimiter struct {
	redis       *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginLimiter returns nil when rdb is nil or throttling is disabled.
func NewLoginLimiter(rdb *redis.Client, cfg config.LoginConfig) *LoginLimiter {
	if rdb == nil || cfg.MaxAttempts <= 0 {
		return nil
	}
	window := cfg.Window
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginLimiter{redis: rdb, maxAttempts: cfg.MaxAttempts, window: window}
}

func loginFailuresKey(username string) string {
	return fmt.Sprintf("login:failures:%s", username)
}

// Allow reports whether username is under the failure limit. Redis errors
// allow the attempt and are returned for logging.
func (l *LoginLimiter) Allow(ctx context.Context, username string) (bool, error) {
	if l == nil {
		return true, nil
	}
	count, err := l.redis.Get(ctx, loginFailuresKey(username)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return count < l.maxAttempts, nil
}

// RecordFailure increments the counter and restarts its window in one
// pipeline.
func (l *LoginLimiter) RecordFailure(ctx context.Context, username string) error {
	if l == nil {
		return nil
	}
	key := loginFailuresKey(username)
	pipe := l.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	_, err := pipe.Exec(ctx)
	return err
}

func (l *LoginLimiter) Reset(ctx context.Context, username string) error {
	if l == nil {
		return nil
	}
	return l.redis.Del(ctx, loginFailuresKey(username)).Err()
}
