package factory

import (
	"fmt"
	"net/http"

	"github.com/mikey/catalog-auditor/internal/adapters/woocommerce"
	"github.com/mikey/catalog-auditor/internal/config"
	"github.com/mikey/catalog-auditor/internal/fetch"
	"go.uber.org/zap"
)

// CatalogFactory creates the catalog API client
type CatalogFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCatalogFactory creates a new catalog factory
func NewCatalogFactory(cfg *config.Config, logger *zap.Logger) *CatalogFactory {
	return &CatalogFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateFetcher builds the resilient fetcher. The write key pair is selected only
// when a remediation may issue writes.
func (f *CatalogFactory) CreateFetcher() (*fetch.Fetcher, error) {
	api, err := f.cfg.GetAPI()
	if err != nil {
		return nil, err
	}
	retry, err := f.cfg.GetRetry()
	if err != nil {
		return nil, err
	}

	write := f.cfg.GetRemediation().AnyEnabled()
	key, secret := api.Credentials(write)
	if key == "" || secret == "" {
		return nil, fmt.Errorf("missing API credentials (write access: %t)", write)
	}

	policy := fetch.BackoffPolicy{
		MaxAttempts:  retry.MaxAttempts,
		InitialDelay: retry.InitialDelay,
		MaxDelay:     retry.MaxDelay,
		MaxJitter:    retry.MaxJitter,
	}

	var opts []fetch.Option
	if api.RequestsPerSecond > 0 {
		opts = append(opts, fetch.WithRateLimit(api.RequestsPerSecond))
	}

	f.logger.Info("Catalog API configured",
		zap.String("base_url", api.BaseURL),
		zap.Bool("write_access", write),
		zap.Int("max_attempts", policy.MaxAttempts),
		zap.Float64("requests_per_second", api.RequestsPerSecond))

	client := &http.Client{Timeout: api.Timeout}
	return fetch.NewFetcher(client, key, secret, policy, f.logger.Named("fetch"), opts...), nil
}

// CreateCatalogClient builds the WooCommerce client on top of a fetcher
func (f *CatalogFactory) CreateCatalogClient(fetcher *fetch.Fetcher) (*woocommerce.Client, error) {
	api, err := f.cfg.GetAPI()
	if err != nil {
		return nil, err
	}
	return woocommerce.NewClient(fetcher, api.BaseURL, api.PerPage, api.MaxPages, f.logger.Named("catalog"))
}

// CreateImageClient returns the HTTP client used to probe images
func (f *CatalogFactory) CreateImageClient() (*http.Client, error) {
	api, err := f.cfg.GetAPI()
	if err != nil {
		return nil, err
	}
	return &http.Client{Timeout: api.Timeout}, nil
}
