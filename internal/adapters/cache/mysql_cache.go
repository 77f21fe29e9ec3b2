package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the CacheRepository interface
type MySQLCache struct {
	db     *sql.DB
	name   string
	ttl    core.TTL
	logger *zap.Logger
	now    func() time.Time
}

// NewMySQLCache connects to MySQL and prepares the cache table
func NewMySQLCache(dsn, name string, ttl core.TTL, logger *zap.Logger) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	c, err := NewMySQLCacheFromDB(db, name, ttl, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewMySQLCacheFromDB prepares the cache table on an open connection
func NewMySQLCacheFromDB(db *sql.DB, name string, ttl core.TTL, logger *zap.Logger) (*MySQLCache, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_cache (
			cache_name VARCHAR(64) NOT NULL,
			cache_key VARCHAR(512) NOT NULL,
			cache_value VARCHAR(255) NOT NULL,
			last_checked DATETIME NOT NULL,
			PRIMARY KEY (cache_name, cache_key),
			INDEX idx_last_checked (last_checked)
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLCache{
		db:     db,
		name:   name,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Get retrieves a cached entry
func (c *MySQLCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
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

	checked, err := time.ParseInLocation(sqlTimeLayout, lastChecked, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_checked timestamp: %w", err)
	}
	return evaluate(core.CacheEntry{Key: key, Value: value, LastChecked: checked}, c.ttl, c.now())
}

// Set stores a cache entry
func (c *MySQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO audit_cache (cache_name, cache_key, cache_value, last_checked)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			cache_value = VALUES(cache_value),
			last_checked = VALUES(last_checked)
	`, c.name, entry.Key, entry.Value, entry.LastChecked.UTC().Format(sqlTimeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, key string) error {
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
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	if c.ttl.IsZero() {
		return nil
	}

	result, err := c.db.ExecContext(ctx, `
		DELETE FROM audit_cache
		WHERE cache_name = ? AND last_checked < ?
	`, c.name, cutoff(c.ttl, c.now()).UTC().Format(sqlTimeLayout))
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
func (c *MySQLCache) Flush(ctx context.Context) error {
	return nil
}

// Stop closes the database connection
func (c *MySQLCache) Stop() {
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
