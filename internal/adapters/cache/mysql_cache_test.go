package cache

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockMySQLCache(t *testing.T, ttl core.TTL) (*MySQLCache, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_cache").WillReturnResult(sqlmock.NewResult(0, 0))
	c, err := NewMySQLCacheFromDB(db, "image_exists", ttl, zap.NewNop())
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return c, mock
}

func TestMySQLCacheGet(t *testing.T) {
	c, mock := newMockMySQLCache(t, core.TTL{Months: 1})

	mock.ExpectQuery("SELECT cache_value, last_checked FROM audit_cache").
		WithArgs("image_exists", "https://shop.example/a.jpg").
		WillReturnRows(sqlmock.NewRows([]string{"cache_value", "last_checked"}).AddRow("true", "2024-05-20 08:00:00"))
	mock.ExpectQuery("SELECT cache_value, last_checked FROM audit_cache").
		WithArgs("image_exists", "https://shop.example/b.jpg").
		WillReturnRows(sqlmock.NewRows([]string{"cache_value", "last_checked"}).AddRow("false", "2024-04-01 08:00:00"))
	mock.ExpectQuery("SELECT cache_value, last_checked FROM audit_cache").
		WithArgs("image_exists", "https://shop.example/c.jpg").
		WillReturnRows(sqlmock.NewRows([]string{"cache_value", "last_checked"}))

	entry, err := c.Get(context.Background(), "https://shop.example/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "true", entry.Value)
	assert.True(t, entry.LastChecked.Equal(time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)))

	_, err = c.Get(context.Background(), "https://shop.example/b.jpg")
	assert.ErrorIs(t, err, core.ErrExpired)

	_, err = c.Get(context.Background(), "https://shop.example/c.jpg")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLCacheSetAndCleanup(t *testing.T) {
	c, mock := newMockMySQLCache(t, core.TTL{Months: 1})

	checked := time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO audit_cache").
		WithArgs("image_exists", "https://shop.example/a.jpg", "true", "2024-05-31 23:00:00").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM audit_cache").
		WithArgs("image_exists", "2024-05-01 09:00:00").
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, c.Set(context.Background(), &core.CacheEntry{Key: "https://shop.example/a.jpg", Value: "true", LastChecked: checked}))
	require.NoError(t, c.Cleanup(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLCacheCleanupWithoutTTL(t *testing.T) {
	c, mock := newMockMySQLCache(t, core.TTL{})
	require.NoError(t, c.Cleanup(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
