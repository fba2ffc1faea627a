package ratelimit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlink/anonchat/internal/cache"
	"github.com/chatlink/anonchat/internal/config"
	"github.com/chatlink/anonchat/internal/service/ratelimit"
)

func setupLimiter(t *testing.T) (*ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ratelimit.New(cache.NewRedisCache(cfg), log), mr
}

// TestAllowWithinLimit verifies the full window is usable and the next
// action is denied.
func TestAllowWithinLimit(t *testing.T) {
	ctx := context.Background()
	limiter, _ := setupLimiter(t)

	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Allow(ctx, 42, 10, time.Minute), "action %d", i)
	}
	assert.False(t, limiter.Allow(ctx, 42, 10, time.Minute))
	assert.False(t, limiter.Allow(ctx, 42, 10, time.Minute))
}

// TestWindowExpiry verifies the counter resets once the window passes.
func TestWindowExpiry(t *testing.T) {
	ctx := context.Background()
	limiter, mr := setupLimiter(t)

	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(ctx, 42, 10, time.Minute))
	}
	require.False(t, limiter.Allow(ctx, 42, 10, time.Minute))

	mr.FastForward(time.Minute + time.Second)

	assert.True(t, limiter.Allow(ctx, 42, 10, time.Minute))
}

// TestLimiterPerUser verifies one user exhausting their window does
// not affect another.
func TestLimiterPerUser(t *testing.T) {
	ctx := context.Background()
	limiter, _ := setupLimiter(t)

	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(ctx, 1, 10, time.Minute))
	}
	require.False(t, limiter.Allow(ctx, 1, 10, time.Minute))

	assert.True(t, limiter.Allow(ctx, 2, 10, time.Minute))
}

// TestFailOpen verifies a dead cache never blocks sending.
func TestFailOpen(t *testing.T) {
	ctx := context.Background()
	limiter, mr := setupLimiter(t)

	mr.Close()

	assert.True(t, limiter.Allow(ctx, 42, 10, time.Minute))
}

// TestMalformedCounter verifies a corrupted counter value fails open
// instead of locking the user out.
func TestMalformedCounter(t *testing.T) {
	ctx := context.Background()
	limiter, mr := setupLimiter(t)

	require.NoError(t, mr.Set(cache.KeyForRateLimit(42), "not-a-number"))

	assert.True(t, limiter.Allow(ctx, 42, 10, time.Minute))
}
