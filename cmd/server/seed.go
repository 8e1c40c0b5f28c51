package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"feynman-backend/internal/repository"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the demo user and persona",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		if cfg.StorageDriver != "postgres" {
			return fmt.Errorf("seeding in-memory storage has no effect; use SEED_DEMO_DATA with serve")
		}

		store, closeStore, err := openStore(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer closeStore()

		created, err := repository.Seed(cmd.Context(), store)
		if err != nil {
			return err
		}
		if created {
			log.Info("Demo data seeded", "username", repository.DemoUsername)
		} else {
			log.Info("Demo data already present")
		}
		return nil
	},
}
