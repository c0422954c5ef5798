package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kenacbank/auth-service/internal/app"
	"github.com/kenacbank/auth-service/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:           "auth-service",
		Short:         "Token based authentication service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Profile)
			slog.SetDefault(logger)

			a, err := app.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			if err := app.Migrate(a.DB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			return a.Run(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			db, err := app.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}()
			if err := app.Migrate(db); err != nil {
				return err
			}
			slog.Info("migrations applied", "driver", cfg.DatabaseDriver)
			return nil
		},
	}
}

func newLogger(profile string) *slog.Logger {
	if profile == "dev" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
