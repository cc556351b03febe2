package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// StatsCache memoizes aggregated statistics for a short TTL
type StatsCache interface {
	// Get decodes the cached value into dest and reports whether it was found
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any)
	Invalidate(ctx context.Context, keys ...string)
}

// RedisStatsCache stores JSON-encoded stats in redis
type RedisStatsCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStatsCache(client *redis.Client, prefix string, ttl time.Duration) *RedisStatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisStatsCache{client: client, prefix: prefix + "stats:", ttl: ttl}
}

func (c *RedisStatsCache) Get(ctx context.Context, key string, dest any) bool {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("stats cache: read %s failed: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

func (c *RedisStatsCache) Set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		log.Printf("stats cache: write %s failed: %v", key, err)
	}
}

func (c *RedisStatsCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		log.Printf("stats cache: invalidate failed: %v", err)
	}
}

// NoopStatsCache never caches
type NoopStatsCache struct{}

func (NoopStatsCache) Get(context.Context, string, any) bool { return false }
func (NoopStatsCache) Set(context.Context, string, any)      {}
func (NoopStatsCache) Invalidate(context.Context, ...string) {}
