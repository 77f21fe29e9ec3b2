package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/catalog-auditor/internal/adapters/cache"
	"github.com/mikey/catalog-auditor/internal/adapters/notify"
	"github.com/mikey/catalog-auditor/internal/config"
	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConfig(t *testing.T, values map[string]any) *config.Config {
	t.Helper()
	v := config.NewEmptyViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCacheFactoryFileBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "caches")
	f := NewCacheFactory(newConfig(t, map[string]any{"cache.dir": dir}), zap.NewNop())
	defer f.Close()

	repo, err := f.CreateCacheRepository(ImageExistsCache, f.GetCacheTTL())
	require.NoError(t, err)
	fc, ok := repo.(*cache.FileCache)
	require.True(t, ok)

	ctx := context.Background()
	require.NoError(t, fc.Set(ctx, &core.CacheEntry{Key: "https://x/a.jpg", Value: "true", LastChecked: time.Now()}))
	require.NoError(t, fc.Flush(ctx))
	assert.FileExists(t, filepath.Join(dir, ImageExistsCache+".csv"))
}

func TestCacheFactoryMemoryBackend(t *testing.T) {
	f := NewCacheFactory(newConfig(t, map[string]any{"cache.type": "memory"}), zap.NewNop())
	repo, err := f.CreateCacheRepository(ImageDimensionsCache, core.TTL{})
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryCache{}, repo)
}

func TestCacheFactorySQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "cache.db")
	f := NewCacheFactory(newConfig(t, map[string]any{"cache.type": "sqlite", "cache.sqlite_path": path}), zap.NewNop())
	defer f.Close()

	_, err := f.CreateCacheRepository(ImageExistsCache, f.GetCacheTTL())
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestCacheFactoryRejectsUnknownType(t *testing.T) {
	f := NewCacheFactory(newConfig(t, map[string]any{"cache.type": "tape"}), zap.NewNop())
	_, err := f.CreateCacheRepository(ImageExistsCache, core.TTL{})
	assert.ErrorContains(t, err, "unsupported cache type")
}

func TestCacheTTLFromConfig(t *testing.T) {
	f := NewCacheFactory(newConfig(t, map[string]any{"cache.ttl_months": 3}), zap.NewNop())
	assert.Equal(t, core.TTL{Months: 3}, f.GetCacheTTL())
}

func TestNotifierFactory(t *testing.T) {
	n, err := NewNotifierFactory(newConfig(t, nil), zap.NewNop()).CreateNotifier()
	require.NoError(t, err)
	assert.IsType(t, &notify.LogNotifier{}, n)

	n, err = NewNotifierFactory(newConfig(t, map[string]any{
		"mail.enabled":    true,
		"mail.host":       "mail.example",
		"mail.recipients": []string{"ops@example.com"},
	}), zap.NewNop()).CreateNotifier()
	require.NoError(t, err)
	assert.IsType(t, &notify.SMTPNotifier{}, n)
}

func TestCatalogFactorySelectsCredentials(t *testing.T) {
	values := map[string]any{
		"api.base_url":    "https://shop.example",
		"api.read_key":    "ck_read",
		"api.read_secret": "cs_read",
	}
	f := NewCatalogFactory(newConfig(t, values), zap.NewNop())
	fetcher, err := f.CreateFetcher()
	require.NoError(t, err)
	client, err := f.CreateCatalogClient(fetcher)
	require.NoError(t, err)
	assert.NotNil(t, client)

	// Enabling a remediation requires the write pair
	values["remediation.discounts"] = true
	_, err = NewCatalogFactory(newConfig(t, values), zap.NewNop()).CreateFetcher()
	assert.ErrorContains(t, err, "write access: true")
}

func TestCheckFactoryRunner(t *testing.T) {
	f := NewCheckFactory(newConfig(t, nil), nil)
	assert.NotNil(t, f.CreateRunner())
}
