package main

import (
	"context"
	"fmt"
	"os"

	"unicorns/api"
	"unicorns/config"
	"unicorns/db"
	"unicorns/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "serve",
		Short:         "Serve the seeded unicorns over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			loader.SetConfigFile(configFile)
			if err := loader.BindFlag("server.addr", cmd.Flags().Lookup("addr")); err != nil {
				return err
			}
			if err := loader.BindFlag("database.path", cmd.Flags().Lookup("db")); err != nil {
				return err
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
			logger := zl.Sugar()

			store, _, err := db.Bootstrap(cmd.Context(), cfg.Database, zl.Core().Enabled(zap.DebugLevel), logger)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := api.NewServer(store, logger)
			srv.ReadTimeout = cfg.Server.ReadTimeout
			srv.WriteTimeout = cfg.Server.WriteTimeout
			srv.IdleTimeout = cfg.Server.IdleTimeout
			return srv.Run(cfg.Server.Addr)
		},
	}

	rootCmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	rootCmd.Flags().String("addr", ":8080", "Address to listen on")
	rootCmd.Flags().String("db", "unicorns.db", "Path to SQLite database file")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
