// Package respcache caches rendered assistant responses in Redis for a short TTL.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "assistant:response:"

// Cache stores opaque encoded responses.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// New creates a cache; a non-positive ttl defaults to 30 seconds.
func New(redisClient *redis.Client, ttl time.Duration) *Cache {
	if redisClient == nil {
		panic("respcache: redis client required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{redis: redisClient, ttl: ttl}
}

// Key hashes the parts into a fixed-length cache key so prompts never appear in Redis keys.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached value and whether it was present.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("respcache: get: %w", err)
	}
	return data, true, nil
}

// Set stores value under key for the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.redis.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("respcache: set: %w", err)
	}
	return nil
}

// TTL reports the configured expiry.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
