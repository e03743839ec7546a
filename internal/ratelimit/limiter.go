// Package ratelimit implements a Redis-backed fixed-window request counter
// shared across instances. Counters live under namespaced keys with a TTL
// equal to the window; they are created by the first request in a window and
// expire on their own.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "ratelimit"

type Limiter struct {
	redis    *redis.Client
	window   time.Duration
	failOpen bool
	log      zerolog.Logger
}

func NewLimiter(redisClient *redis.Client, window time.Duration, failOpen bool, log zerolog.Logger) *Limiter {
	return &Limiter{
		redis:    redisClient,
		window:   window,
		failOpen: failOpen,
		log:      log,
	}
}

// Outcome is the admission decision plus the header metadata every response
// carries.
type Outcome struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Admit increments the counter for key and checks it against the ceiling.
// The increment and TTL set run in one pipeline; the TTL is only set when
// the key is new so the window is fixed, not sliding. If the counter store
// is unreachable the limiter fails open (configurable): an outage in the
// counting substrate must not become a full-system outage.
func (l *Limiter) Admit(ctx context.Context, key string, ceiling int) Outcome {
	redisKey := fmt.Sprintf("%s:%s", keyPrefix, key)

	pipe := l.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	ttl := pipe.TTL(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error().Err(err).Str("key", key).Bool("fail_open", l.failOpen).
			Msg("rate limit counter unavailable")
		if l.failOpen {
			return Outcome{
				Allowed:   true,
				Limit:     ceiling,
				Remaining: ceiling,
				ResetAt:   time.Now().Add(l.window),
			}
		}
		return Outcome{
			Allowed:    false,
			Limit:      ceiling,
			RetryAfter: l.window,
			ResetAt:    time.Now().Add(l.window),
		}
	}

	count := incr.Val()
	windowLeft := ttl.Val()
	if windowLeft < 0 {
		windowLeft = l.window
	}
	resetAt := time.Now().Add(windowLeft)

	remaining := ceiling - int(count)
	if remaining < 0 {
		remaining = 0
	}

	out := Outcome{
		Allowed:   count <= int64(ceiling),
		Limit:     ceiling,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !out.Allowed {
		out.RetryAfter = windowLeft
	}
	return out
}

// Reset clears the counter for a key. Test and admin use only.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.redis.Del(ctx, fmt.Sprintf("%s:%s", keyPrefix, key)).Err()
}
