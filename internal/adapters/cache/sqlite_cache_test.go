package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSQLiteCache(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	exists, err := NewSQLiteCache(dbPath, "image_exists", core.TTL{Months: 1}, zap.NewNop())
	require.NoError(t, err)
	defer exists.Stop()
	exists.now = func() time.Time { return now }

	dims, err := NewSQLiteCache(dbPath, "image_dimensions", core.TTL{}, zap.NewNop())
	require.NoError(t, err)
	defer dims.Stop()
	dims.now = func() time.Time { return now }

	url := "https://shop.example/a.jpg"
	require.NoError(t, exists.Set(ctx, &core.CacheEntry{Key: url, Value: "true", LastChecked: now.AddDate(0, 0, -10)}))
	require.NoError(t, dims.Set(ctx, &core.CacheEntry{Key: url, Value: "1200x900", LastChecked: now.AddDate(-3, 0, 0)}))

	entry, err := exists.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "true", entry.Value)

	entry, err = dims.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "1200x900", entry.Value)

	require.NoError(t, exists.Set(ctx, &core.CacheEntry{Key: url, Value: "false", LastChecked: now.AddDate(0, -2, 0)}))
	_, err = exists.Get(ctx, url)
	assert.ErrorIs(t, err, core.ErrExpired)

	require.NoError(t, exists.Cleanup(ctx))
	_, err = exists.Get(ctx, url)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// other named caches are untouched
	_, err = dims.Get(ctx, url)
	assert.NoError(t, err)

	require.NoError(t, dims.Delete(ctx, url))
	_, err = dims.Get(ctx, url)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
