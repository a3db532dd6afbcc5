// Package rdx wraps the redis client used as a read-through cache for the
// aggregation endpoints. A nil *Cache is valid and disables caching, so
// the server runs fine without a redis instance.
package rdx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	conn *redis.Client
}

// New connects to redis. An empty URL returns a disabled cache.
func New(ctx context.Context, url, password string) (*Cache, error) {
	if url == "" {
		return nil, nil
	}
	conn := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: password,
		DB:       0,
	})
	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Cache{conn: conn}, nil
}

// Get returns the cached value and whether it was present.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	val, err := c.conn.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// SetWithExpiry stores a value with a TTL. Failures are ignored: the cache
// is an optimization, not a source of truth.
func (c *Cache) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) {
	if c == nil {
		return
	}
	c.conn.Set(ctx, key, value, ttl)
}

// Del removes keys, used to invalidate aggregates after tour writes.
func (c *Cache) Del(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	c.conn.Del(ctx, keys...)
}

// Close releases the underlying connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.conn.Close()
}
