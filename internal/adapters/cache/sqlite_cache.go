package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the CacheRepository interface.
// Several named caches share one database file.
type SQLiteCache struct {
	db     *sql.DB
	name   string
	ttl    core.TTL
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteCache opens the database at dbPath and prepares the cache table
func NewSQLiteCache(dbPath, name string, ttl core.TTL, logger *zap.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_cache (
			cache_name TEXT NOT NULL,
			cache_key TEXT NOT NULL,
			cache_value TEXT NOT NULL,
			last_checked TEXT NOT NULL,
			PRIMARY KEY (cache_name, cache_key)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteCache{
		db:     db,
		name:   name,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Get retrieves a cached entry
func (c *SQLiteCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var value, lastChecked string
	err := c.db.QueryRowContext(ctx, `
		SELECT cache_value, last_checked
		FROM audit_cache
		WHERE cache_name = ? AND cache_key = ?
	`, c.name, key).Scan(&value, &lastChecked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	checked, err := time.Parse(time.RFC3339, lastChecked)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_checked timestamp: %w", err)
	}
	return evaluate(core.CacheEntry{Key: key, Value: value, LastChecked: checked}, c.ttl, c.now())
}

// Set stores a cache entry
func (c *SQLiteCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO audit_cache (cache_name, cache_key, cache_value, last_checked)
		VALUES (?, ?, ?, ?)
	`, c.name, entry.Key, entry.Value, entry.LastChecked.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM audit_cache
		WHERE cache_name = ? AND cache_key = ?
	`, c.name, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	if c.ttl.IsZero() {
		return nil
	}

	// RFC3339 strings in one zone sort chronologically
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM audit_cache
		WHERE cache_name = ? AND last_checked < ?
	`, c.name, cutoff(c.ttl, c.now()).UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// Flush is a no-op; every write is committed immediately
func (c *SQLiteCache) Flush(ctx context.Context) error {
	return nil
}

// Stop closes the database connection
func (c *SQLiteCache) Stop() {
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
