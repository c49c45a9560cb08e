package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/productinventor/filevault/internal/logger"
	"github.com/productinventor/filevault/pkg/config"
	"github.com/productinventor/filevault/pkg/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: `Apply pending schema migrations to the configured metadata store.

SQLite has no separate migration step: pkg/store.New runs GORM AutoMigrate
on open. This command only does real work against PostgreSQL, where
golang-migrate applies the embedded migration set under a database
advisory lock.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Database.Driver != "postgres" {
		cmd.Printf("driver %q auto-migrates on open; nothing to do\n", cfg.Database.Driver)
		return nil
	}

	return store.RunMigrations(cmd.Context(), cfg.Database.DSN, nil)
}
