package main

import (
	"context"
	"fmt"
	"os"

	"unicorns/config"
	"unicorns/db"
	"unicorns/logging"

	"go.uber.org/zap"
)

func main() {
	if err := run(context.Background(), config.NewLoader()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run creates the schema only, without reading any seed data. Settings come
// from the environment and .env, same as the seed command.
func run(ctx context.Context, loader *config.Loader) error {
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	zl, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	store, created, err := db.Bootstrap(ctx, cfg.Database, zl.Core().Enabled(zap.DebugLevel), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	if created {
		logger.Infow("database initialized", "driver", cfg.Database.Driver)
	} else {
		logger.Infow("database already initialized", "driver", cfg.Database.Driver)
	}
	logger.Info("schema created, no seed data loaded")
	return nil
}
