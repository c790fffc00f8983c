package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"cloudsync/internal/auth/password"
	"cloudsync/internal/database"
	"cloudsync/internal/repository/postgres"
	"cloudsync/internal/service"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userDisableCmd = &cobra.Command{
	Use:   "disable <email>",
	Short: "Disable an account; its sessions stop working immediately",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserActive(cmd, args[0], false)
	},
}

var userEnableCmd = &cobra.Command{
	Use:   "enable <email>",
	Short: "Re-enable a disabled account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserActive(cmd, args[0], true)
	},
}

func init() {
	userCmd.AddCommand(userDisableCmd, userEnableCmd)
	rootCmd.AddCommand(userCmd)
}

func setUserActive(cmd *cobra.Command, email string, active bool) error {
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

	// Sessions are never issued here.
	users := service.NewUserService(postgres.NewUserPostgres(db), password.NewHasher(cfg.Auth.BcryptCost), nil)
	if err := users.SetActive(ctx, email, active); err != nil {
		return fmt.Errorf("set active for %s: %w", email, err)
	}

	slog.InfoContext(ctx, "user_updated", "email", service.NormalizeEmail(email), "is_active", active)
	fmt.Fprintf(cmd.OutOrStdout(), "%s is_active=%t\n", service.NormalizeEmail(email), active)
	return nil
}
