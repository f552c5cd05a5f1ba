package cache

import "time"

// BytesCache stores raw response bodies with a TTL. Implementations are the
// in-process TTLCache and the Redis-backed cache for multi-replica setups.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
