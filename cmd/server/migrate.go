package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"feynman-backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		if cfg.StorageDriver != "postgres" {
			return fmt.Errorf("migrate needs STORAGE_DRIVER=postgres")
		}

		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := database.RunMigrations(cmd.Context(), pool, cfg.MigrationsDir, log); err != nil {
			return err
		}
		log.Info("Migrations applied", "dir", cfg.MigrationsDir)
		return nil
	},
}
