package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"unicorns/config"
	"unicorns/db"
	"unicorns/logging"
	"unicorns/model"
	"unicorns/seed"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// flagKeys binds command-line flags to config keys.
var flagKeys = map[string]string{
	"file":        "seed.file",
	"sheet":       "seed.sheet_id",
	"sheet-range": "seed.sheet_range",
	"driver":      "database.driver",
	"db":          "database.path",
	"backup":      "seed.backup",
	"max-backups": "seed.max_backups",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	var seedData bool

	rootCmd := &cobra.Command{
		Use:           "seed",
		Short:         "Create the unicorns table and load it from a CSV file or Google Sheet",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			loader.SetConfigFile(configFile)
			for name, key := range flagKeys {
				if err := loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
					return err
				}
			}
			cfg, err := loader.Load()
			if err != nil {
				return err
			}

			zl, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			_, err = run(cmd.Context(), cfg, seedData, cmd.OutOrStdout(), zl.Sugar())
			return err
		},
	}

	rootCmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	rootCmd.Flags().BoolVar(&seedData, "seed", true, "Whether to load seed data after creating the schema")
	rootCmd.Flags().String("file", "unicorns.csv", "CSV file to import")
	rootCmd.Flags().String("sheet", "", "Google Sheets spreadsheet ID to import instead of the CSV file")
	rootCmd.Flags().String("sheet-range", "Unicorns!A:G", "Worksheet range to read, header row included")
	rootCmd.Flags().String("driver", config.DriverSQLite, "Database driver: sqlite or postgres")
	rootCmd.Flags().String("db", "unicorns.db", "Path to SQLite database file")
	rootCmd.Flags().Bool("backup", true, "Whether to create a backup of the SQLite database if it exists")
	rootCmd.Flags().Int("max-backups", 5, "Maximum number of backups to retain")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.Flags().String("log-format", "console", "Log format: console or json")

	return rootCmd
}

// run performs one seeding pass and prints progress to out. With seedData
// unset only the schema is created and the returned result is nil.
func run(ctx context.Context, cfg *config.Config, seedData bool, out io.Writer, zl *zap.SugaredLogger) (*seed.Result, error) {
	if cfg.Database.Driver == config.DriverSQLite && cfg.Seed.Backup && seedData {
		backupPath, err := db.BackupSQLite(cfg.Database.Path, cfg.Seed.MaxBackups, zl)
		if err != nil {
			return nil, err
		}
		if backupPath != "" {
			zl.Infow("existing database backed up", "path", backupPath)
		}
	}

	conn, err := db.Open(cfg.Database, logging.ParseLevel(cfg.Log.Level) == zap.DebugLevel)
	if err != nil {
		return nil, &seed.StoreError{Op: "connect", Err: err}
	}
	store := db.NewSQLStore(conn)
	defer func() {
		if err := store.Close(); err != nil {
			zl.Warnf("failed to close database: %v", err)
		}
	}()

	seeder := seed.NewSeeder(store, zl)
	created, err := seeder.EnsureSchema(ctx)
	if err != nil {
		return nil, err
	}
	if created {
		fmt.Fprintf(out, "Created %q table\n", model.Unicorn{}.TableName())
	} else {
		fmt.Fprintf(out, "Table %q already exists\n", model.Unicorn{}.TableName())
	}

	if !seedData {
		zl.Info("database schema created but no seed data loaded")
		return nil, nil
	}

	var res *seed.Result
	if cfg.Seed.SheetID != "" {
		src, err := seed.NewSheetSource(ctx, cfg.Seed.SheetID, cfg.Seed.SheetRange, cfg.Seed.CredentialsFile)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		res, err = seeder.Seed(ctx, src)
		if err != nil {
			return nil, err
		}
	} else {
		res, err = seeder.SeedFile(ctx, cfg.Seed.File)
		if err != nil {
			return nil, err
		}
	}

	fmt.Fprintf(out, "Seeded %d unicorns\n", res.RowsRead)
	return res, nil
}
