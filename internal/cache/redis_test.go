// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/metrocrowd/internal/resilience"
)

// setupMiniRedis creates a test Redis server using miniredis.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := newRedisCache(client, "", zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestRedisCache_SetGet(t *testing.T) {
	mr, c := setupMiniRedis(t)

	c.Set("summary?weekday=평일", []byte(`{"rows":1}`), 5*time.Minute)

	val, found := c.Get("summary?weekday=평일")
	require.True(t, found)
	assert.Equal(t, `{"rows":1}`, string(val))
	assert.True(t, mr.Exists("metrocrowd:summary?weekday=평일"), "keys are prefixed")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestRedisCache_GetMissing(t *testing.T) {
	_, c := setupMiniRedis(t)

	val, found := c.Get("nonexistent")
	assert.False(t, found)
	assert.Nil(t, val)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestRedisCache_TTL(t *testing.T) {
	mr, c := setupMiniRedis(t)

	c.Set("k", []byte("v"), time.Minute)
	mr.FastForward(2 * time.Minute)

	_, found := c.Get("k")
	assert.False(t, found)
}

func TestRedisCache_Delete(t *testing.T) {
	_, c := setupMiniRedis(t)

	c.Set("k", []byte("v"), time.Minute)
	c.Delete("k")
	_, found := c.Get("k")
	assert.False(t, found)
}

func TestRedisCache_ClearKeepsForeignKeys(t *testing.T) {
	mr, c := setupMiniRedis(t)
	require.NoError(t, mr.Set("other:key", "keep"))

	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, []byte(k), time.Minute)
	}
	c.Clear()

	assert.Equal(t, 0, c.Stats().CurrentSize)
	assert.Equal(t, int64(3), c.Stats().Evictions)
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr, c := setupMiniRedis(t)
	mr.Close()

	c.Set("k", []byte("v"), time.Minute)
	_, found := c.Get("k")
	assert.False(t, found)
	assert.Zero(t, c.Stats().Sets)
	assert.Error(t, c.HealthCheck(context.Background()))
}

type stepClock struct{ now time.Time }

func (s *stepClock) Now() time.Time { return s.now }

func TestRedisCache_BreakerOpensAndRecovers(t *testing.T) {
	mr, c := setupMiniRedis(t)
	clock := &stepClock{now: time.Now()}
	c.breaker = resilience.NewCircuitBreaker("cache_redis_test", 2, time.Minute, resilience.WithClock(clock))

	mr.SetError("ERR injected failure")
	c.Set("k", []byte("v"), time.Minute)
	_, found := c.Get("k")
	assert.False(t, found)
	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	// Recovered server is not contacted until the reset timeout passes.
	mr.SetError("")
	c.Set("k", []byte("v"), time.Minute)
	assert.False(t, mr.Exists("metrocrowd:k"))
	assert.NoError(t, c.HealthCheck(context.Background()))

	clock.now = clock.now.Add(2 * time.Minute)
	c.Set("k", []byte("v"), time.Minute)
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
	val, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "v", string(val))
}

func TestNewRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(RedisConfig{Addr: mr.Addr(), Prefix: "test:"}, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	c.Set("k", []byte("v"), time.Minute)
	assert.True(t, mr.Exists("test:k"))
	assert.NoError(t, c.HealthCheck(context.Background()))
}
