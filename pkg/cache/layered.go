package cache

import (
	"context"
	"time"
)

// LayeredCache fronts Redis with the in-process cache. Reads hit memory
// first and backfill it from Redis; writes and deletes go to both layers.
type LayeredCache struct {
	memory *MemoryCache
	redis  *RedisCache
}

// NewLayeredCache creates a two-level cache over a Redis backend.
func NewLayeredCache(redisCache *RedisCache) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(),
		redis:  redisCache,
	}
}

func (c *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := c.redis.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.memory.Set(ctx, key, value, ttl)
}

func (c *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := c.memory.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := c.redis.Get(ctx, key, dest); err != nil {
		return err
	}
	// backfill without a TTL authority; redis expiry still governs
	_ = c.memory.Set(ctx, key, dest, 30*time.Second)
	return nil
}

func (c *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = c.memory.Delete(ctx, keys...)
	return c.redis.Delete(ctx, keys...)
}

func (c *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := c.memory.Exists(ctx, key); ok {
		return true, nil
	}
	return c.redis.Exists(ctx, key)
}
