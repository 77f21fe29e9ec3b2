package flatfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestThrottleStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "email_throttle.csv")
	store := NewThrottleStore(path, zap.NewNop())

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, state)

	require.NoError(t, store.Save(ctx, map[string]time.Time{
		"missing_image": time.Date(2024, 4, 2, 15, 0, 0, 0, time.Local),
		"bad_pennies":   time.Date(2024, 3, 30, 8, 0, 0, 0, time.Local),
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bad_pennies,2024-03-30\nmissing_image,2024-04-02\n", string(data))

	state, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, state, 2)
	assert.True(t, state["missing_image"].Equal(time.Date(2024, 4, 2, 0, 0, 0, 0, time.Local)))
}

func TestThrottleStoreSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email_throttle.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,2024-01-01\nb,soon\nc,2024-01-01,extra\n"), 0644))

	state, err := NewThrottleStore(path, zap.NewNop()).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, state, 1)
	assert.Contains(t, state, "a")
}
