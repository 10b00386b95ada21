package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiterAllow(t *testing.T) {
	limiter := NewSlidingWindowLimiter(2, time.Minute)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other keys are unaffected.
	allowed, err = limiter.Allow(ctx, "ip:10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestSlidingWindowLimiterReset(t *testing.T) {
	limiter := NewSlidingWindowLimiter(1, time.Minute)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "user:alice")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "user:alice")
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "user:alice"))

	allowed, err = limiter.Allow(ctx, "user:alice")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestSlidingWindowLimiterEvictsIdleKeys(t *testing.T) {
	limiter := NewSlidingWindowLimiter(10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_, err := limiter.Allow(ctx, fmt.Sprintf("ip:10.0.%d.%d", i/256, i%256))
		require.NoError(t, err)
	}

	limiter.mu.Lock()
	size := len(limiter.windows)
	limiter.mu.Unlock()
	require.Equal(t, 1000, size)

	// Once the window has fully elapsed, every key is idle and gets dropped.
	limiter.evictIdle(time.Now().Add(2 * time.Minute))

	limiter.mu.Lock()
	size = len(limiter.windows)
	limiter.mu.Unlock()
	assert.Equal(t, 0, size)
}

func TestSlidingWindowLimiterKeepsActiveKeys(t *testing.T) {
	limiter := NewSlidingWindowLimiter(10, time.Minute)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)

	limiter.evictIdle(time.Now())

	limiter.mu.Lock()
	_, exists := limiter.windows["ip:10.0.0.1"]
	limiter.mu.Unlock()
	assert.True(t, exists)
}
