package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"feynman-backend/internal/config"
	"feynman-backend/internal/database"
	"feynman-backend/internal/logger"
	"feynman-backend/internal/repository"
)

var rootCmd = &cobra.Command{
	Use:           "feynman-server",
	Short:         "Backend for the Feynman learning assistant",
	Long:          "Serves the REST and WebSocket API for teaching AI personas with the Feynman technique.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("port", "", "HTTP port (overrides PORT env var)")
	rootCmd.PersistentFlags().String("storage", "", "Storage driver: memory or postgres (overrides STORAGE_DRIVER)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg := config.Load()
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		cfg.Port = p
	}
	if s, _ := cmd.Flags().GetString("storage"); s != "" {
		cfg.StorageDriver = s
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		}
		if s == "postgres" && cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for postgres storage")
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log, nil
}

// openStore returns the configured store and a func releasing it.
// Postgres storage is migrated before it is returned.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Store, func(), error) {
	if cfg.StorageDriver != "postgres" {
		log.Info("Using in-memory storage")
		return repository.NewMemoryStore(), func() {}, nil
	}

	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("PostgreSQL connected")

	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.NewPostgresStore(pool), pool.Close, nil
}
