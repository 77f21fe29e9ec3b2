package di

import (
	"context"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/catalog-auditor/internal/adapters/flatfile"
	"github.com/mikey/catalog-auditor/internal/adapters/woocommerce"
	"github.com/mikey/catalog-auditor/internal/alert"
	"github.com/mikey/catalog-auditor/internal/audit"
	"github.com/mikey/catalog-auditor/internal/config"
	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/mikey/catalog-auditor/internal/factory"
	"github.com/mikey/catalog-auditor/internal/logging"
	"github.com/mikey/catalog-auditor/internal/media"
	"github.com/mikey/catalog-auditor/internal/utils"
)

// BuildContainer creates and configures a dependency injection container. An
// empty configPath searches the default locations.
func BuildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.NewFromFile(configPath)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCatalogFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewNotifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCheckFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register catalog client, serving as both reader and writer
	if err := container.Provide(func(f *factory.CatalogFactory) (*woocommerce.Client, error) {
		fetcher, err := f.CreateFetcher()
		if err != nil {
			return nil, err
		}
		return f.CreateCatalogClient(fetcher)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(c *woocommerce.Client) core.CatalogReader {
		return c
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(c *woocommerce.Client) core.CatalogWriter {
		return c
	}); err != nil {
		return nil, err
	}

	// Register image prober and its caches
	if err := container.Provide(func(cf *factory.CacheFactory, catf *factory.CatalogFactory, logger *zap.Logger) (*media.Prober, error) {
		exists, err := cf.CreateCacheRepository(factory.ImageExistsCache, cf.GetCacheTTL())
		if err != nil {
			return nil, err
		}
		dimensions, err := cf.CreateCacheRepository(factory.ImageDimensionsCache, core.TTL{})
		if err != nil {
			return nil, err
		}
		client, err := catf.CreateImageClient()
		if err != nil {
			return nil, err
		}
		return media.NewProber(client, exists, dimensions, logger.Named("media")), nil
	}); err != nil {
		return nil, err
	}

	// Register notifier
	if err := container.Provide(func(f *factory.NotifierFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}

	// Register alert throttle
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*alert.Throttle, error) {
		mc := cfg.GetMail()
		store := flatfile.NewThrottleStore(mc.ThrottleFile, logger.Named("throttle"))
		return alert.NewThrottle(context.Background(), store, mc.CooldownDays, logger.Named("throttle"))
	}); err != nil {
		return nil, err
	}

	// Register alert aggregator
	if err := container.Provide(func(
		cfg *config.Config,
		notifier core.Notifier,
		throttle *alert.Throttle,
		text *utils.TextProcessor,
		logger *zap.Logger,
	) *alert.Aggregator {
		mc := cfg.GetMail()
		opts := alert.Options{
			MaxMessages:   mc.MaxMessages,
			SubjectPrefix: mc.SubjectPrefix,
		}
		return alert.NewAggregator(notifier, throttle, text, opts, logger.Named("alert"))
	}); err != nil {
		return nil, err
	}

	// Register check runner
	if err := container.Provide(func(f *factory.CheckFactory) *audit.Runner {
		return f.CreateRunner()
	}); err != nil {
		return nil, err
	}

	// Register audit engine
	if err := container.Provide(func(
		cfg *config.Config,
		reader core.CatalogReader,
		writer core.CatalogWriter,
		runner *audit.Runner,
		alerts *alert.Aggregator,
		logger *zap.Logger,
	) *audit.Engine {
		return audit.NewEngine(reader, writer, runner, alerts,
			cfg.GetRemediation(), cfg.GetChecks(), os.Stdout, logger.Named("audit"))
	}); err != nil {
		return nil, err
	}

	return container, nil
}
