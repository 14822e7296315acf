package main

import (
	"context"
	"testing"

	"github.com/hostelcare/complaint-server/internal/config"
	"github.com/hostelcare/complaint-server/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLimiter_MemoryByDefault(t *testing.T) {
	limiter, closeFn, err := newLimiter(context.Background(), &config.Config{RateLimitRPM: 2}, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer closeFn()

	require.IsType(t, &middleware.MemoryLimiter{}, limiter)
	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewLimiter_BadRedisURL(t *testing.T) {
	_, _, err := newLimiter(context.Background(), &config.Config{RateLimitRPM: 2, RedisURL: "not a url"}, zap.NewNop().Sugar())
	assert.Error(t, err)
}
