// Package rate implements the login-attempt limiter consumed by the
// authentication orchestrator: fixed-window counters keyed per caller,
// backed by Redis or in-process memory.
package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBackendUnavailable reports a counter-store outage.
var ErrBackendUnavailable = errors.New("rate limit backend unavailable")

// Config holds limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
	Prefix      string
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = time.Minute
	}
	if c.Prefix == "" {
		c.Prefix = "gatehouse:limit:"
	}
	return c
}

// Decision is the per-attempt outcome of Consume.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Time
}

// Limiter is the contract the orchestrator consumes.
type Limiter interface {
	Consume(ctx context.Context, key string) (Decision, error)
	Reset(ctx context.Context, key string) error
}

// RedisLimiter enforces a fixed attempt window using Redis counters.
// Increments serialize per key on the Redis side, so concurrent attempts
// never lose updates.
type RedisLimiter struct {
	client redis.UniversalClient
	cfg    Config
}

// NewRedis builds a Redis-backed limiter.
func NewRedis(client redis.UniversalClient, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg.withDefaults()}
}

// Consume records one attempt for key and decides whether it is within
// budget. When the budget is exhausted the decision carries the timestamp
// at which the window reopens.
func (l *RedisLimiter) Consume(ctx context.Context, key string) (Decision, error) {
	k := l.cfg.Prefix + key

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	// Fixed-window semantics: the first hit in a window sets its TTL.
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.cfg.Cooldown).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}

	if count > int64(l.cfg.MaxAttempts) {
		ttl, err := l.client.PTTL(ctx, k).Result()
		if err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		if ttl < 0 {
			ttl = l.cfg.Cooldown
		}
		return Decision{Allowed: false, RetryAfter: time.Now().Add(ttl)}, nil
	}

	return Decision{Allowed: true, Remaining: l.cfg.MaxAttempts - int(count)}, nil
}

// Reset clears the attempt counter for key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.cfg.Prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
