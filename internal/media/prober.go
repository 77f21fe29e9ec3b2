// Package media checks that product images exist and measures them
package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

// Prober answers image questions through two caches: existence results expire,
// dimensions are kept forever since an uploaded file does not change.
type Prober struct {
	client     *http.Client
	exists     core.CacheRepository
	dimensions core.CacheRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewProber creates a new image prober
func NewProber(client *http.Client, exists, dimensions core.CacheRepository, logger *zap.Logger) *Prober {
	return &Prober{
		client:     client,
		exists:     exists,
		dimensions: dimensions,
		logger:     logger,
		now:        time.Now,
	}
}

// cached returns the value stored for url, or false on a miss
func (p *Prober) cached(ctx context.Context, repo core.CacheRepository, url string) (string, bool) {
	entry, err := repo.Get(ctx, url)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) && !errors.Is(err, core.ErrExpired) {
			p.logger.Warn("Cache lookup failed", zap.String("url", url), zap.Error(err))
		}
		return "", false
	}
	return entry.Value, true
}

func (p *Prober) store(ctx context.Context, repo core.CacheRepository, url, value string) {
	err := repo.Set(ctx, &core.CacheEntry{Key: url, Value: value, LastChecked: p.now()})
	if err != nil {
		p.logger.Warn("Failed to cache probe result", zap.String("url", url), zap.Error(err))
	}
}

// Exists reports whether url answers a HEAD request. Both outcomes are cached.
func (p *Prober) Exists(ctx context.Context, url string) (bool, error) {
	if v, ok := p.cached(ctx, p.exists, url); ok {
		return v == "true", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to probe %s: %w", url, err)
	}
	resp.Body.Close()

	var exists bool
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		exists = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		exists = false
	default:
		return false, fmt.Errorf("unexpected status %d probing %s", resp.StatusCode, url)
	}

	p.store(ctx, p.exists, url, strconv.FormatBool(exists))
	p.logger.Debug("Probed image", zap.String("url", url), zap.Bool("exists", exists))
	return exists, nil
}

// Dimensions returns the pixel size of the image at url. Only the image header is read.
func (p *Prober) Dimensions(ctx context.Context, url string) (int, int, error) {
	if v, ok := p.cached(ctx, p.dimensions, url); ok {
		var w, h int
		if _, err := fmt.Sscanf(v, "%dx%d", &w, &h); err == nil {
			return w, h, nil
		}
		p.logger.Warn("Dropping malformed cached dimensions", zap.String("url", url), zap.String("value", v))
		if err := p.dimensions.Delete(ctx, url); err != nil {
			p.logger.Warn("Failed to drop cache entry", zap.String("url", url), zap.Error(err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return 0, 0, fmt.Errorf("unexpected status %d downloading %s", resp.StatusCode, url)
	}

	cfg, format, err := image.DecodeConfig(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image %s: %w", url, err)
	}

	p.store(ctx, p.dimensions, url, fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))
	p.logger.Debug("Measured image",
		zap.String("url", url),
		zap.String("format", format),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height))
	return cfg.Width, cfg.Height, nil
}

// Flush prunes expired existence results and persists both caches
func (p *Prober) Flush(ctx context.Context) error {
	if err := p.exists.Cleanup(ctx); err != nil {
		return fmt.Errorf("failed to prune existence cache: %w", err)
	}
	if err := p.exists.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush existence cache: %w", err)
	}
	if err := p.dimensions.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush dimensions cache: %w", err)
	}
	return nil
}
