package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxionhq/fluxion/pkg/log"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	limiter := NewMemoryLimiter(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "key-a")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, err := limiter.Allow(ctx, "key-a")
	require.NoError(t, err)
	assert.False(t, allowed, "burst exhausted")

	// Separate keys hold separate buckets.
	allowed, err = limiter.Allow(ctx, "key-b")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNew_SelectsBackend(t *testing.T) {
	logger := log.WithModule("ratelimit-test")

	limiter, err := New("", 0, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryLimiter{}, limiter)

	limiter, err = New("memory://", 10, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryLimiter{}, limiter)

	_, err = New("carrier-pigeon://", 10, logger)
	assert.Error(t, err)
}
