//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"shortlink/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowLimiter_Allow(t *testing.T) {
	client := testutil.StartRedis(t)
	limiter := NewFixedWindowLimiter(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, reset, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 2-i, remaining)
		assert.True(t, reset.After(time.Now()))
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)

	other, _, _, err := limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other, "keys are counted separately")
}

func TestFixedWindowLimiter_Reset(t *testing.T) {
	client := testutil.StartRedis(t)
	limiter := NewFixedWindowLimiter(client, 1, time.Minute)
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "key")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "key")
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "key"))

	allowed, _, _, err = limiter.Allow(ctx, "key")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestFixedWindowLimiter_RedisDown(t *testing.T) {
	client := testutil.StartRedis(t)
	limiter := NewFixedWindowLimiter(client, 1, time.Minute)
	require.NoError(t, client.Close())

	_, _, _, err := limiter.Allow(context.Background(), "key")
	assert.Error(t, err)
	assert.Equal(t, 1, limiter.MaxRequests())
}
