package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "catalog-audit:cache:"

// RedisCache is a Redis implementation of the CacheRepository interface.
// Each entry is a hash with value and last_checked fields.
type RedisCache struct {
	client *redis.Client
	name   string
	ttl    core.TTL
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisCache connects to Redis
func NewRedisCache(addr, password string, db int, name string, ttl core.TTL, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheFromClient(client, name, ttl, logger), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, name string, ttl core.TTL, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		name:   name,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (c *RedisCache) redisKey(key string) string {
	return redisKeyPrefix + c.name + ":" + key
}

// Get retrieves a cached entry
func (c *RedisCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	fields, err := c.client.HGetAll(ctx, c.redisKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}
	if len(fields) == 0 {
		return nil, core.ErrNotFound
	}

	checked, err := time.Parse(time.RFC3339, fields["last_checked"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_checked timestamp: %w", err)
	}
	return evaluate(core.CacheEntry{Key: key, Value: fields["value"], LastChecked: checked}, c.ttl, c.now())
}

// Set stores a cache entry
func (c *RedisCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	err := c.client.HSet(ctx, c.redisKey(entry.Key),
		"value", entry.Value,
		"last_checked", entry.LastChecked.UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup scans the cache's keys and removes expired entries
func (c *RedisCache) Cleanup(ctx context.Context) error {
	if c.ttl.IsZero() {
		return nil
	}

	prefix := c.redisKey("")
	expiredCount := 0
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()[len(prefix):]
		_, err := c.Get(ctx, key)
		if errors.Is(err, core.ErrExpired) {
			if err := c.Delete(ctx, key); err != nil {
				return err
			}
			expiredCount++
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// Flush is a no-op; every write is committed immediately
func (c *RedisCache) Flush(ctx context.Context) error {
	return nil
}

// Stop closes the client
func (c *RedisCache) Stop() {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis client", zap.Error(err))
	}
}
