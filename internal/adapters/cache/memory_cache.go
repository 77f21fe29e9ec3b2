package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

// MemoryCache is an in-memory implementation of the CacheRepository interface.
// Its contents live for a single run.
type MemoryCache struct {
	entries map[string]core.CacheEntry
	ttl     core.TTL
	mu      sync.RWMutex
	logger  *zap.Logger
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(ttl core.TTL, logger *zap.Logger) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]core.CacheEntry),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Get retrieves a cached entry
func (c *MemoryCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return evaluate(entry, c.ttl, c.now())
}

// Set stores a cache entry
func (c *MemoryCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[entry.Key] = *entry
	return nil
}

// Delete removes a cache entry
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0
	for key, entry := range c.entries {
		if c.ttl.Expired(entry.LastChecked, now) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// Flush is a no-op; nothing outlives the process
func (c *MemoryCache) Flush(ctx context.Context) error {
	return nil
}
