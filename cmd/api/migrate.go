package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"cloudsync/internal/database"
	"cloudsync/internal/database/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply every pending schema migration and exit.

Examples:
  # Migrate to the latest version
  cloudsync migrate

  # Show applied and pending migrations only
  cloudsync migrate --status`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var migrateStatus bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print migration status instead of migrating")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	runner := migration.NewRunner(db, slog.Default(), cfg.Database.Host)
	if migrateStatus {
		return runner.Status(ctx)
	}
	return runner.Up(ctx)
}
