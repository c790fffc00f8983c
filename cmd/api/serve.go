package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	_ "cloudsync/docs"
	"cloudsync/internal/auth/password"
	"cloudsync/internal/auth/token"
	"cloudsync/internal/config"
	"cloudsync/internal/database"
	"cloudsync/internal/database/migration"
	handlers "cloudsync/internal/http/handler"
	"cloudsync/internal/http/middleware"
	"cloudsync/internal/metrics"
	"cloudsync/internal/otel"
	"cloudsync/internal/repository/postgres"
	"cloudsync/internal/service"
	"cloudsync/internal/storage"
)

// multipartOverhead leaves room for form boundaries and headers around the
// largest accepted file.
const multipartOverhead = 1 << 20

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var autoMigrate bool

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := slog.Default()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if autoMigrate {
		if err := migration.NewRunner(db, logger, cfg.Database.Host).Up(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	store, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	tokens, err := token.New(cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithm, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("init token service: %w", err)
	}

	fileRepo := postgres.NewFilePostgres(db)
	users := service.NewUserService(postgres.NewUserPostgres(db), password.NewHasher(cfg.Auth.BcryptCost), tokens)
	files := service.NewFileService(store, fileRepo, service.FileConfig{
		MaxUploadBytes: cfg.Files.MaxUploadBytes,
		DownloadURLTTL: cfg.Files.DownloadURLTTL,
		MaxPageSize:    cfg.Files.MaxPageSize,
	}, domainMetrics, logger)
	shares := service.NewShareService(files, fileRepo, postgres.NewShareLinkPostgres(db), domainMetrics)
	gate := service.NewAccessGate(tokens, users, shares)

	app := fiber.New(fiber.Config{
		AppName:      "cloudsync " + version,
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Files.MaxUploadBytes) + multipartOverhead,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	// Metrics wrap the logger so they see the status it rendered.
	app.Use(httpMetrics.Handler())
	app.Use(middleware.Logger(logger))

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:       db,
		Users:    users,
		Files:    files,
		Shares:   shares,
		Gate:     gate,
		Gatherer: reg,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_starting", "port", cfg.Port, "storage_driver", cfg.Storage.Driver)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server_stopping")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newStorage(ctx context.Context, c config.StorageConfig) (storage.Storage, error) {
	switch c.Driver {
	case "s3":
		return storage.NewS3(ctx, c.S3)
	default:
		return storage.NewMinIO(c.MinIO)
	}
}
