package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/catalog-auditor/internal/adapters/cache"
	"github.com/mikey/catalog-auditor/internal/config"
	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

// Names of the lookup caches
const (
	ImageExistsCache     = "image_exists"
	ImageDimensionsCache = "image_dimensions"
)

// CacheFactory creates cache repositories based on configuration
type CacheFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	created []core.CacheRepository
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// GetCacheTTL returns the configured TTL of expiring caches
func (f *CacheFactory) GetCacheTTL() core.TTL {
	return core.TTL{Months: f.cfg.GetCache().TTLMonths}
}

// CreateCacheRepository creates the named cache on the configured backend
func (f *CacheFactory) CreateCacheRepository(name string, ttl core.TTL) (core.CacheRepository, error) {
	cc := f.cfg.GetCache()
	logger := f.logger.With(zap.String("cache", name))

	var (
		repo core.CacheRepository
		err  error
	)
	switch cc.Type {
	case "file":
		if err := os.MkdirAll(cc.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		repo, err = cache.NewFileCache(filepath.Join(cc.Dir, name+".csv"), ttl, logger)
	case "memory":
		repo = cache.NewMemoryCache(ttl, logger)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		repo, err = cache.NewSQLiteCache(cc.SQLitePath, name, ttl, logger)
	case "mysql":
		repo, err = cache.NewMySQLCache(cc.MySQLDSN, name, ttl, logger)
	case "redis":
		repo, err = cache.NewRedisCache(cc.RedisAddr, cc.RedisPassword, cc.RedisDB, name, ttl, logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cc.Type)
	}
	if err != nil {
		return nil, err
	}

	f.created = append(f.created, repo)
	logger.Debug("Cache ready", zap.String("type", cc.Type))
	return repo, nil
}

// Close releases the connections held by the caches created so far
func (f *CacheFactory) Close() {
	for _, repo := range f.created {
		if stopper, ok := repo.(interface{ Stop() }); ok {
			stopper.Stop()
		}
	}
	f.created = nil
}
