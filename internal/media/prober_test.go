package media

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mikey/catalog-auditor/internal/adapters/cache"
	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

type imageServer struct {
	heads atomic.Int32
	gets  atomic.Int32
	body  []byte
}

func (s *imageServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/missing.png" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.URL.Path == "/broken.png" {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	switch r.Method {
	case http.MethodHead:
		s.heads.Add(1)
	case http.MethodGet:
		s.gets.Add(1)
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(s.body)
}

func newTestProber(t *testing.T) (*Prober, *imageServer, *httptest.Server) {
	t.Helper()
	is := &imageServer{body: pngBytes(t, 1200, 800)}
	srv := httptest.NewServer(is)
	t.Cleanup(srv.Close)

	p := NewProber(srv.Client(),
		cache.NewMemoryCache(core.TTL{Months: 1}, zap.NewNop()),
		cache.NewMemoryCache(core.TTL{}, zap.NewNop()),
		zap.NewNop())
	return p, is, srv
}

func TestExistsIsCached(t *testing.T) {
	p, is, srv := newTestProber(t)
	ctx := context.Background()

	ok, err := p.Exists(ctx, srv.URL+"/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Exists(ctx, srv.URL+"/a.png")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), is.heads.Load())

	ok, err = p.Exists(ctx, srv.URL+"/missing.png")
	require.NoError(t, err)
	assert.False(t, ok)

	entry, err := p.exists.Get(ctx, srv.URL+"/missing.png")
	require.NoError(t, err)
	assert.Equal(t, "false", entry.Value)
}

func TestExistsRecomputesAfterExpiry(t *testing.T) {
	p, is, srv := newTestProber(t)
	ctx := context.Background()
	url := srv.URL + "/a.png"

	require.NoError(t, p.exists.Set(ctx, &core.CacheEntry{Key: url, Value: "false", LastChecked: time.Now().AddDate(0, -2, 0)}))

	ok, err := p.Exists(ctx, url)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), is.heads.Load())
}

func TestExistsServerErrorIsNotCached(t *testing.T) {
	p, _, srv := newTestProber(t)
	ctx := context.Background()

	_, err := p.Exists(ctx, srv.URL+"/broken.png")
	assert.Error(t, err)
	_, err = p.exists.Get(ctx, srv.URL+"/broken.png")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDimensionsAreCachedForever(t *testing.T) {
	p, is, srv := newTestProber(t)
	ctx := context.Background()
	url := srv.URL + "/a.png"

	w, h, err := p.Dimensions(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, 1200, w)
	assert.Equal(t, 800, h)

	w, h, err = p.Dimensions(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, 1200, w)
	assert.Equal(t, 800, h)
	assert.Equal(t, int32(1), is.gets.Load())

	entry, err := p.dimensions.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "1200x800", entry.Value)
	assert.NoError(t, p.Flush(ctx))
}

func TestMalformedDimensionsAreDropped(t *testing.T) {
	p, is, srv := newTestProber(t)
	ctx := context.Background()
	url := srv.URL + "/a.png"

	require.NoError(t, p.dimensions.Set(ctx, &core.CacheEntry{Key: url, Value: "wide", LastChecked: time.Now()}))

	w, _, err := p.Dimensions(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, 1200, w)
	assert.Equal(t, int32(1), is.gets.Load())

	entry, err := p.dimensions.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "1200x800", entry.Value)
}

func TestFlushPrunesExpiredExistence(t *testing.T) {
	dir := t.TempDir()
	existsPath := filepath.Join(dir, "image_exists.csv")
	ttl := core.TTL{Months: 1}

	exists, err := cache.NewFileCache(existsPath, ttl, zap.NewNop())
	require.NoError(t, err)
	dimensions, err := cache.NewFileCache(filepath.Join(dir, "image_dimensions.csv"), core.TTL{}, zap.NewNop())
	require.NoError(t, err)
	p := NewProber(http.DefaultClient, exists, dimensions, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, exists.Set(ctx, &core.CacheEntry{Key: "https://shop.example/old.png", Value: "true", LastChecked: time.Now().AddDate(0, -3, 0)}))
	require.NoError(t, exists.Set(ctx, &core.CacheEntry{Key: "https://shop.example/new.png", Value: "true", LastChecked: time.Now()}))
	require.NoError(t, p.Flush(ctx))

	reloaded, err := cache.NewFileCache(existsPath, ttl, zap.NewNop())
	require.NoError(t, err)
	_, err = reloaded.Get(ctx, "https://shop.example/old.png")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = reloaded.Get(ctx, "https://shop.example/new.png")
	assert.NoError(t, err)
}

func TestDimensionsOfMissingImage(t *testing.T) {
	p, _, srv := newTestProber(t)
	_, _, err := p.Dimensions(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)
}
