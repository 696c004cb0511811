package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryRateLimiter()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		allowed, remaining, reset, err := l.CheckRateLimit(ctx, "ip:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(2-i), remaining)
		assert.Equal(t, now.Add(time.Minute), reset)
	}

	allowed, remaining, _, err := l.CheckRateLimit(ctx, "ip:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)

	allowed, _, _, _ = l.CheckRateLimit(ctx, "ip:2", 3, time.Minute)
	assert.True(t, allowed, "clients are counted separately")
}

func TestMemoryRateLimiter_SlidingWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryRateLimiter()
	l.now = func() time.Time { return now }

	for i := 0; i < 4; i++ {
		_, _, _, err := l.CheckRateLimit(ctx, "key:a", 4, time.Minute)
		require.NoError(t, err)
	}

	// a quarter into the next window, three of the four previous requests
	// still count
	now = now.Add(75 * time.Second)
	allowed, remaining, reset, err := l.CheckRateLimit(ctx, "key:a", 4, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, remaining)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 2, 0, 0, time.UTC), reset)

	allowed, _, _, err = l.CheckRateLimit(ctx, "key:a", 4, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// three quarters in, one previous request and one current request count
	now = now.Add(30 * time.Second)
	allowed, remaining, _, err = l.CheckRateLimit(ctx, "key:a", 4, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), remaining)

	// two windows later the history is gone
	now = now.Add(2 * time.Minute)
	allowed, remaining, _, err = l.CheckRateLimit(ctx, "key:a", 4, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(3), remaining)
}
