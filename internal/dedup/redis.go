package dedup

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces the processed-address set in a shared instance.
const redisKeyPrefix = "dexpaid:seen:"

// RedisCache is a Cache backed by Redis so the processed-address window
// survives process restarts. Expiry is delegated to Redis key TTLs.
// Best-effort: a Redis error on read is treated as "absent", which at worst
// re-verifies a token that was already handled.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewRedisCache creates a Redis-backed cache. A nil logger discards errors.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *log.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Contains reports whether key is present and unexpired in Redis.
func (c *RedisCache) Contains(ctx context.Context, key string) bool {
	n, err := c.client.Exists(ctx, redisKey(key)).Result()
	if err != nil {
		c.logf("dedup redis exists %s: %v", key, err)
		return false
	}
	return n > 0
}

// Insert records key with the configured TTL.
func (c *RedisCache) Insert(ctx context.Context, key string) {
	ts := time.Now().UnixMilli()
	if err := c.client.Set(ctx, redisKey(key), ts, c.ttl).Err(); err != nil {
		c.logf("dedup redis set %s: %v", key, err)
	}
}

func (c *RedisCache) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

var _ Cache = (*RedisCache)(nil)
