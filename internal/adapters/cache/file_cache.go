package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mikey/catalog-auditor/internal/adapters/flatfile"
	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

// FileCache is a flat-file implementation of the CacheRepository interface.
// The file holds one key,value,YYYY-MM-DD line per entry. It is read once when the
// cache is created and rewritten as a whole by Flush.
type FileCache struct {
	path    string
	ttl     core.TTL
	entries map[string]core.CacheEntry
	dirty   bool
	mu      sync.Mutex
	logger  *zap.Logger
	now     func() time.Time
}

// NewFileCache loads the cache file at path. A missing file starts an empty cache.
func NewFileCache(path string, ttl core.TTL, logger *zap.Logger) (*FileCache, error) {
	records, err := flatfile.ReadRecords(path, 3, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	entries := make(map[string]core.CacheEntry, len(records))
	for _, rec := range records {
		checked, err := time.ParseInLocation(flatfile.DateLayout, rec[2], time.Local)
		if err != nil {
			logger.Warn("Skipping cache line with invalid date",
				zap.String("file", path),
				zap.String("key", rec[0]),
				zap.String("date", rec[2]))
			continue
		}
		entries[rec[0]] = core.CacheEntry{Key: rec[0], Value: rec[1], LastChecked: checked}
	}

	logger.Debug("Loaded cache file", zap.String("file", path), zap.Int("entries", len(entries)))
	return &FileCache{
		path:    path,
		ttl:     ttl,
		entries: entries,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Get retrieves a cached entry
func (c *FileCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return evaluate(entry, c.ttl, c.now())
}

// Set stores a cache entry. The check date is kept at day precision, as on disk.
// Entries whose key or value cannot be stored in an unescaped line are not cached.
func (c *FileCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	if strings.ContainsAny(entry.Key, ",\r\n") || strings.ContainsAny(entry.Value, ",\r\n") {
		c.logger.Debug("Not caching entry with a separator in it", zap.String("key", entry.Key))
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	checked := entry.LastChecked.Local()
	c.entries[entry.Key] = core.CacheEntry{
		Key:         entry.Key,
		Value:       entry.Value,
		LastChecked: time.Date(checked.Year(), checked.Month(), checked.Day(), 0, 0, 0, 0, time.Local),
	}
	c.dirty = true
	return nil
}

// Delete removes a cache entry
func (c *FileCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.dirty = true
	}
	return nil
}

// Cleanup removes expired entries
func (c *FileCache) Cleanup(ctx context.Context) error {
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
	if expiredCount > 0 {
		c.dirty = true
	}

	c.logger.Debug("Cleaned up expired cache entries",
		zap.String("file", c.path),
		zap.Int("expired_count", expiredCount))
	return nil
}

// Flush rewrites the cache file if anything changed since it was loaded
func (c *FileCache) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([][]string, 0, len(keys))
	for _, key := range keys {
		entry := c.entries[key]
		records = append(records, []string{entry.Key, entry.Value, entry.LastChecked.Format(flatfile.DateLayout)})
	}

	if err := flatfile.WriteRecords(c.path, records); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	c.dirty = false
	c.logger.Debug("Flushed cache file", zap.String("file", c.path), zap.Int("entries", len(records)))
	return nil
}
