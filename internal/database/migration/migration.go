// Package migration applies the embedded goose migrations to PostgreSQL.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

const migrationsDir = "sql"

// Runner applies migrations and reports each step through a logger.
type Runner struct {
	db     *sql.DB
	logger *slog.Logger
	dbHost string
}

// NewRunner returns a Runner for db.
func NewRunner(db *sql.DB, logger *slog.Logger, dbHost string) *Runner {
	return &Runner{db: db, logger: logger.With("component", "database", "db_host", dbHost), dbHost: dbHost}
}

// Up brings the schema to the latest version.
func (r *Runner) Up(ctx context.Context) error {
	start := time.Now()
	r.logger.InfoContext(ctx, "db_migration_start", "status", "in_progress")

	provider, err := r.provider()
	if err != nil {
		r.logger.ErrorContext(ctx, "db_migration_failed", "status", "error", "error_message", err.Error())
		return err
	}

	results, err := provider.Up(ctx)
	for _, res := range results {
		r.logStep(ctx, res)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "db_migration_failed",
			"status", "error",
			"error_message", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("migrate up: %w", err)
	}

	if len(results) == 0 {
		r.logger.InfoContext(ctx, "db_migration_skip",
			"status", "success",
			"msg", "schema already up to date",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	r.logger.InfoContext(ctx, "db_migration_success",
		"status", "success",
		"applied", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Status logs the applied state of every known migration.
func (r *Runner) Status(ctx context.Context) error {
	provider, err := r.provider()
	if err != nil {
		return err
	}
	statuses, err := provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	for _, st := range statuses {
		r.logger.InfoContext(ctx, "db_migration_status",
			"version", st.Source.Version,
			"migration_step", st.Source.Path,
			"state", string(st.State),
		)
	}
	return nil
}

func (r *Runner) provider() (*goose.Provider, error) {
	fsys, err := Files()
	if err != nil {
		return nil, err
	}
	p, err := goose.NewProvider(goose.DialectPostgres, r.db, fsys)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return p, nil
}

func (r *Runner) logStep(ctx context.Context, res *goose.MigrationResult) {
	if res.Error != nil {
		r.logger.ErrorContext(ctx, "db_migration_step",
			"status", "error",
			"migration_step", res.Source.Path,
			"error_message", res.Error.Error(),
			"step_duration_ms", res.Duration.Milliseconds(),
		)
		return
	}
	r.logger.InfoContext(ctx, "db_migration_step",
		"status", "success",
		"migration_step", res.Source.Path,
		"step_duration_ms", res.Duration.Milliseconds(),
	)
}
