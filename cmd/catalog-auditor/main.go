package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/catalog-auditor/internal/audit"
	"github.com/mikey/catalog-auditor/internal/config"
	"github.com/mikey/catalog-auditor/internal/di"
	"github.com/mikey/catalog-auditor/internal/factory"
	"go.uber.org/zap"
)

var configFile = flag.String("config", "", "Path to config file (searches the default locations if not specified)")

func main() {
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the audit
	if err := container.Invoke(run); err != nil {
		fmt.Println(audit.Describe(err))
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	cacheFactory *factory.CacheFactory,
	engine *audit.Engine,
) error {
	defer logger.Sync()
	defer cacheFactory.Close()

	runCfg, err := cfg.GetRun()
	if err != nil {
		return err
	}

	// Cancel the run on SIGINT or SIGTERM; digests are still flushed
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := audit.WithDeadline(ctx, runCfg.Timeout)
	defer cancel()

	if used := cfg.GetViper().ConfigFileUsed(); used != "" {
		logger.Info("Loaded configuration from file", zap.String("file", used))
	}

	return engine.Run(ctx)
}
