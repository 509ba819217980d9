// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ManuGH/metrocrowd/internal/resilience"
)

// Breaker settings for the Redis backend. While open, lookups are misses
// and writes are dropped.
const (
	redisBreakerThreshold = 5
	redisBreakerReset     = 30 * time.Second
)

// RedisCache is a Redis-backed implementation of Cache. Keys are namespaced
// by prefix so Clear never touches foreign data.
type RedisCache struct {
	client  *redis.Client
	prefix  string
	logger  zerolog.Logger
	stats   counters
	breaker *resilience.CircuitBreaker
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
	Prefix   string // key namespace, defaults to "metrocrowd:"
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(config RedisConfig, logger zerolog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("event", "cache.redis.connected").
		Str("addr", config.Addr).
		Int("db", config.DB).
		Msg("connected to Redis cache")

	return newRedisCache(client, config.Prefix, logger), nil
}

func newRedisCache(client *redis.Client, prefix string, logger zerolog.Logger) *RedisCache {
	if prefix == "" {
		prefix = "metrocrowd:"
	}
	return &RedisCache{
		client:  client,
		prefix:  prefix,
		logger:  logger,
		breaker: resilience.NewCircuitBreaker("cache_redis", redisBreakerThreshold, redisBreakerReset),
	}
}

// do runs fn through the breaker. Open-circuit rejections are logged at debug.
func (c *RedisCache) do(op, key string, fn func() error) error {
	err := c.breaker.Execute(fn)
	switch {
	case err == nil:
	case errors.Is(err, resilience.ErrCircuitOpen):
		c.logger.Debug().Str("op", op).Str("key", key).Msg("redis skipped, circuit open")
	default:
		c.logger.Warn().Err(err).Str("op", op).Str("key", key).Msg("redis " + op + " failed")
	}
	return err
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var val []byte
	found := false
	err := c.do("get", key, func() error {
		v, err := c.client.Get(ctx, c.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		val, found = v, true
		return nil
	})
	if err != nil || !found {
		c.stats.misses.Add(1)
		return nil, false
	}

	c.stats.hits.Add(1)
	return val, true
}

// Set stores a value in Redis with TTL.
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.do("set", key, func() error {
		return c.client.Set(ctx, c.key(key), value, ttl).Err()
	}); err != nil {
		return
	}
	c.stats.sets.Add(1)
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_ = c.do("delete", key, func() error {
		return c.client.Del(ctx, c.key(key)).Err()
	})
}

// Clear deletes every key under the prefix.
func (c *RedisCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var n int
	err := c.do("clear", c.prefix+"*", func() error {
		var err error
		n, err = c.scan(ctx, func(keys []string) error {
			return c.client.Del(ctx, keys...).Err()
		})
		return err
	})
	if err != nil {
		return
	}
	c.stats.evictions.Add(int64(n))
}

// scan walks the prefix in batches and returns the number of keys visited.
func (c *RedisCache) scan(ctx context.Context, fn func(keys []string) error) (int, error) {
	var cursor uint64
	total := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 500).Result()
		if err != nil {
			return total, err
		}
		if len(keys) > 0 {
			total += len(keys)
			if fn != nil {
				if err := fn(keys); err != nil {
					return total, err
				}
			}
		}
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

// Stats returns cache statistics. CurrentSize counts keys under the prefix.
func (c *RedisCache) Stats() CacheStats {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	size, err := c.scan(ctx, nil)
	if err != nil {
		c.logger.Warn().Err(err).Msg("redis scan failed")
		size = 0
	}
	return c.stats.snapshot(size)
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// BreakerState reports the circuit breaker state of the backend.
func (c *RedisCache) BreakerState() resilience.State {
	return c.breaker.State()
}

// HealthCheck checks if Redis is available. It bypasses the breaker.
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
