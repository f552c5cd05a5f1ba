package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisOptions struct {
	host     string
	port     int
	password string
	db       int
	prefix   string
}

// RedisOption configures a RedisCache.
type RedisOption func(*redisOptions)

func WithRedisHost(host string) RedisOption {
	return func(o *redisOptions) { o.host = host }
}

func WithRedisPort(port int) RedisOption {
	return func(o *redisOptions) { o.port = port }
}

func WithRedisPassword(password string) RedisOption {
	return func(o *redisOptions) { o.password = password }
}

func WithRedisDB(db int) RedisOption {
	return func(o *redisOptions) { o.db = db }
}

func WithRedisPrefix(prefix string) RedisOption {
	return func(o *redisOptions) { o.prefix = prefix }
}

// RedisCache is a Service backed by Redis, shared across replicas.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(opts ...RedisOption) (*RedisCache, error) {
	o := redisOptions{host: "localhost", port: 6379, prefix: "portwatch"}
	for _, opt := range opts {
		opt(&o)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", o.host, o.port),
		Password: o.password,
		DB:       o.db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{client: client, prefix: o.prefix}, nil
}

func (c *RedisCache) key(k string) string {
	return c.prefix + ":" + k
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), b, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	b, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(b, dest)
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	return n > 0, err
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
