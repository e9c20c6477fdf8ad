package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "list:"

// ListCache caches serialized list responses in Redis, keyed by collection
// and raw query string. Every write to either collection can touch the other
// through reference synchronization, so invalidation drops all list keys.
type ListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewListCache returns a new ListCache.
func NewListCache(rdb *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached response bytes or nil on miss.
func (c *ListCache) Get(ctx context.Context, scope, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, keyPrefix+scope+":"+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Set stores the response bytes.
func (c *ListCache) Set(ctx context.Context, scope, key string, data []byte) error {
	return c.rdb.Set(ctx, keyPrefix+scope+":"+key, data, c.ttl).Err()
}

// Invalidate removes every cached list (cache invalidation on write).
func (c *ListCache) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
