package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"cloudsync/internal/config"
	"cloudsync/internal/logging"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version:       version,
	Use:           "cloudsync",
	Short:         "Multi-tenant file storage API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := logging.New(os.Stdout, logging.Options{
			Production: cfg.IsProduction(),
			Level:      cfg.LogLevel,
		})
		logging.SetDefault(logger)
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
	// Running without a subcommand serves the API.
	RunE: runServe,
}

// @title                      CloudSync API
// @version                    1.0
// @description                Multi-tenant file storage with share links.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.New(os.Stderr, logging.Options{Production: true}).Error("command_failed", "error", err)
		os.Exit(1)
	}
}
