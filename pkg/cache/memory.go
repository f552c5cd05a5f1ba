package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is an in-process Service for single-replica deployments and
// tests. Expired entries are dropped lazily on read and by a background
// sweep.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	sweepInterval time.Duration
}

func WithMemorySweep(interval time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		if interval > 0 {
			o.sweepInterval = interval
		}
	}
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	o := memoryOptions{sweepInterval: time.Minute}
	for _, opt := range opts {
		opt(&o)
	}

	c := &MemoryCache{entries: make(map[string]memoryEntry)}
	go c.sweep(o.sweepInterval)
	return c
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := memoryEntry{data: b}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.expired(time.Now()) {
		return ErrCacheMiss
	}
	return json.Unmarshal(e.data, dest)
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	return ok && !e.expired(time.Now()), nil
}

func (c *MemoryCache) sweep(interval time.Duration) {
	for range time.Tick(interval) {
		now := time.Now()
		c.mu.Lock()
		for k, e := range c.entries {
			if e.expired(now) {
				delete(c.entries, k)
			}
		}
		c.mu.Unlock()
	}
}
