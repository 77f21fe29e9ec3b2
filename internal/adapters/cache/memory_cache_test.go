package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	c := NewMemoryCache(core.TTL{Days: 7}, zap.NewNop())
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, &core.CacheEntry{Key: "fresh", Value: "1", LastChecked: now.AddDate(0, 0, -3)}))
	require.NoError(t, c.Set(ctx, &core.CacheEntry{Key: "stale", Value: "2", LastChecked: now.AddDate(0, 0, -8)}))

	entry, err := c.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "1", entry.Value)

	_, err = c.Get(ctx, "stale")
	assert.ErrorIs(t, err, core.ErrExpired)

	require.NoError(t, c.Cleanup(ctx))
	_, err = c.Get(ctx, "stale")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, c.Delete(ctx, "fresh"))
	_, err = c.Get(ctx, "fresh")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, c.Flush(ctx))
}
