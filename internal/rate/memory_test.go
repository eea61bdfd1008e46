package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Window(t *testing.T) {
	lim := NewMemory(2, time.Minute)
	ctx := context.Background()
	now := time.Now()

	allowed, _, err := lim.Allow(ctx, "ip", now)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = lim.Allow(ctx, "ip", now)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, retryAfter, err := lim.Allow(ctx, "ip", now)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))

	// Independent keys do not share the window.
	allowed, _, err = lim.Allow(ctx, "other", now)
	require.NoError(t, err)
	assert.True(t, allowed)

	// The window resets after it elapses.
	allowed, _, err = lim.Allow(ctx, "ip", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryLimiter_ZeroLimit(t *testing.T) {
	lim := NewMemory(0, time.Minute)

	allowed, retryAfter, err := lim.Allow(context.Background(), "ip", time.Now())
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retryAfter)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	lim := NewMemory(1, time.Minute)
	ctx := context.Background()
	now := time.Now()

	_, _, err := lim.Allow(ctx, "stale", now)
	require.NoError(t, err)

	// A call far past the window triggers cleanup of expired entries.
	_, _, err = lim.Allow(ctx, "fresh", now.Add(time.Hour))
	require.NoError(t, err)

	lim.mu.Lock()
	defer lim.mu.Unlock()
	assert.NotContains(t, lim.entries, "stale")
}
