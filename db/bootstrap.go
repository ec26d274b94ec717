package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"unicorns/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database named by cfg. SQL statements are logged to
// stdout only when verbose is set.
func Open(cfg config.DatabaseConfig, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.Path)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}

	logLevel := logger.Silent
	if verbose {
		logLevel = logger.Info
	}
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true, // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true, // Don't include params in the SQL log
			Colorful:                  false,
		},
	)
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	return conn, nil
}

// Bootstrap opens the database and makes sure the schema exists. It reports
// whether the unicorns table had to be created.
func Bootstrap(ctx context.Context, cfg config.DatabaseConfig, verbose bool, zl *zap.SugaredLogger) (*SQLStore, bool, error) {
	conn, err := Open(cfg, verbose)
	if err != nil {
		return nil, false, err
	}
	return bootstrapConn(ctx, conn, cfg.Driver, zl)
}

// bootstrapConn sets up the schema on conn. conn is closed again if that
// fails.
func bootstrapConn(ctx context.Context, conn *gorm.DB, driver string, zl *zap.SugaredLogger) (*SQLStore, bool, error) {
	store := NewSQLStore(conn)
	created, err := store.EnsureSchema(ctx)
	if err != nil {
		if cerr := store.Close(); cerr != nil {
			zl.Warnf("bootstrap: failed to close database: %v", cerr)
		}
		return nil, false, fmt.Errorf("bootstrap: %w", err)
	}
	if created {
		zl.Infow("bootstrap: schema created", "driver", driver)
	} else {
		zl.Debugw("bootstrap: schema already present", "driver", driver)
	}
	return store, created, nil
}
