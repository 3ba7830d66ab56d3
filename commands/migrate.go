package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studio/database"
	"studio/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and the default admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Init(cfg.Database.Driver, cfg.Database.URL, logging.GormLevel(cfg.App.LogLevel), logger); err != nil {
			return err
		}
		defer database.Close()

		logger.Info("database migrated", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo clients, users and projects",
	Long:  `seed migrates the database and inserts a small demo studio. Existing demo rows are left alone, so it can be run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Init(cfg.Database.Driver, cfg.Database.URL, logging.GormLevel(cfg.App.LogLevel), logger); err != nil {
			return err
		}
		defer database.Close()

		return database.SeedDemo(logger)
	},
}
