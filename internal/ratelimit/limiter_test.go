package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, failOpen bool) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLimiter(client, time.Minute, failOpen, zerolog.Nop()), mr
}

func TestAdmitEnforcesCeiling(t *testing.T) {
	limiter, _ := newTestLimiter(t, true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out := limiter.Admit(ctx, "user:u1", 3)
		assert.True(t, out.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 3, out.Limit)
		assert.Equal(t, 2-i, out.Remaining)
	}

	out := limiter.Admit(ctx, "user:u1", 3)
	assert.False(t, out.Allowed)
	assert.Equal(t, 0, out.Remaining)
	assert.Greater(t, out.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, out.RetryAfter, time.Minute)
}

func TestAdmitKeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t, true)
	ctx := context.Background()

	require.True(t, limiter.Admit(ctx, "user:u1", 1).Allowed)
	assert.False(t, limiter.Admit(ctx, "user:u1", 1).Allowed)

	// A different key still has its full quota.
	assert.True(t, limiter.Admit(ctx, "user:u2", 1).Allowed)
	assert.True(t, limiter.Admit(ctx, "ip:10.0.0.1", 1).Allowed)
}

func TestWindowExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t, true)
	ctx := context.Background()

	require.True(t, limiter.Admit(ctx, "ip:10.0.0.1", 1).Allowed)
	require.False(t, limiter.Admit(ctx, "ip:10.0.0.1", 1).Allowed)

	mr.FastForward(61 * time.Second)

	assert.True(t, limiter.Admit(ctx, "ip:10.0.0.1", 1).Allowed)
}

func TestWindowIsFixedNotSliding(t *testing.T) {
	limiter, mr := newTestLimiter(t, true)
	ctx := context.Background()

	limiter.Admit(ctx, "ip:10.0.0.1", 100)
	mr.FastForward(30 * time.Second)
	// A second request must not push the reset out.
	out := limiter.Admit(ctx, "ip:10.0.0.1", 100)
	assert.LessOrEqual(t, time.Until(out.ResetAt), 31*time.Second)
}

func TestFailOpenOnStoreOutage(t *testing.T) {
	limiter, mr := newTestLimiter(t, true)
	ctx := context.Background()

	mr.Close()

	out := limiter.Admit(ctx, "user:u1", 1)
	assert.True(t, out.Allowed, "counter store outage must not deny requests")
	out = limiter.Admit(ctx, "user:u1", 1)
	assert.True(t, out.Allowed)
}

func TestFailClosedWhenConfigured(t *testing.T) {
	limiter, mr := newTestLimiter(t, false)
	ctx := context.Background()

	mr.Close()

	out := limiter.Admit(ctx, "user:u1", 1)
	assert.False(t, out.Allowed)
	assert.Greater(t, out.RetryAfter, time.Duration(0))
}

func TestReset(t *testing.T) {
	limiter, _ := newTestLimiter(t, true)
	ctx := context.Background()

	require.True(t, limiter.Admit(ctx, "user:u1", 1).Allowed)
	require.False(t, limiter.Admit(ctx, "user:u1", 1).Allowed)

	require.NoError(t, limiter.Reset(ctx, "user:u1"))
	assert.True(t, limiter.Admit(ctx, "user:u1", 1).Allowed)
}
