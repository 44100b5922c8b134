package poster

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces poster keys in a shared Redis database
const DefaultRedisPrefix = "marquee:poster:"

const (
	fieldData = "data"
	fieldMIME = "mime"
)

// RedisCache stores each poster as a Redis hash with data and mime fields
type RedisCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps client. A zero ttl keeps entries until Redis evicts them.
func NewRedisCache(client redis.Cmdable, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get retrieves the hash stored for key
func (c *RedisCache) Get(ctx context.Context, key string) (*CachedResponse, bool, error) {
	fields, err := c.client.HGetAll(ctx, c.key(key)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis HGETALL: %w", err)
	}

	data, ok := fields[fieldData]
	if !ok {
		return nil, false, nil
	}

	return &CachedResponse{
		Data:     []byte(data),
		MIMEType: fields[fieldMIME],
	}, true, nil
}

// Put writes the hash for key and applies the TTL in one transaction
func (c *RedisCache) Put(ctx context.Context, key string, resp CachedResponse) error {
	k := c.key(key)

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, k, fieldData, resp.Data, fieldMIME, resp.MIMEType)
	if c.ttl > 0 {
		pipe.Expire(ctx, k, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis HSET %s: %w", k, err)
	}
	return nil
}

func (c *RedisCache) key(key string) string {
	return c.prefix + key
}

var _ ResponseCache = (*RedisCache)(nil)
