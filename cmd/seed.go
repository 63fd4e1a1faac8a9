package cmd

import (
	"context"
	"fmt"

	"github.com/shaan-hospital/apiserver/config"
	"github.com/shaan-hospital/apiserver/internal/db"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/services"
	"github.com/shaan-hospital/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the default administrator if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserService(cmd.Context(), func(cfg config.Config, log *logger.Logger, users *services.UserService) error {
			admin, created, err := users.EnsureAdmin(cmd.Context(), adminSeed(cfg))
			if err != nil {
				return err
			}
			entry := log.WithComponent("seed").WithField("email", admin.Email)
			if created {
				entry.Info("default admin created")
			} else {
				entry.Info("default admin already exists")
			}
			return nil
		})
	},
}

var resetAdminCmd = &cobra.Command{
	Use:   "reset-admin",
	Short: "Reset the default administrator's password",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserService(cmd.Context(), func(cfg config.Config, log *logger.Logger, users *services.UserService) error {
			admin, err := users.ResetAdminPassword(cmd.Context(), adminSeed(cfg))
			if err != nil {
				return err
			}
			log.WithComponent("seed").WithField("email", admin.Email).Info("admin password reset")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(seedAdminCmd, resetAdminCmd)
}

func adminSeed(cfg config.Config) services.AdminSeed {
	return services.AdminSeed{Email: cfg.Seed.AdminEmail, Password: cfg.Seed.AdminPassword}
}

func withUserService(ctx context.Context, fn func(config.Config, *logger.Logger, *services.UserService) error) error {
	cfg := config.LoadConfig()
	log := logger.New(cfg.LogLevel)

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	return fn(cfg, log, services.NewUserService(store.NewUserRepository(conn), nil))
}
