package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gemstone-market/identity/internal/app"
	"github.com/gemstone-market/identity/internal/config"
	"github.com/gemstone-market/identity/internal/infrastructure/database"
	"github.com/gemstone-market/identity/internal/logging"
	"github.com/gemstone-market/identity/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "identityd",
		Short:         "Identity and access service for the gemstone marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML configuration file")

	load := func(cmd *cobra.Command) (context.Context, *config.Config, error) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, err := config.Load(ctx, configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
		return ctx, cfg, nil
	}

	cmd.AddCommand(
		newServeCommand(load),
		newMigrateCommand(load),
		newSeedCommand(load),
		newCleanupCommand(load),
	)
	return cmd
}

type loader func(cmd *cobra.Command) (context.Context, *config.Config, error)

func newServeCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return app.Run(ctx, cfg)
		},
	}
}

func newMigrateCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := load(cmd)
			if err != nil {
				return err
			}
			c, err := app.NewStoreContainer(cfg, logging.New(cfg.App.LogLevel, cfg.App.LogFormat))
			if err != nil {
				return err
			}
			defer c.Close()

			if err := database.Migrate(ctx, c.DB); err != nil {
				return err
			}
			c.Log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func newSeedCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default roles and permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := load(cmd)
			if err != nil {
				return err
			}
			c, err := app.NewStoreContainer(cfg, logging.New(cfg.App.LogLevel, cfg.App.LogFormat))
			if err != nil {
				return err
			}
			defer c.Close()

			if err := services.SeedDefaultRoles(ctx, c.Store); err != nil {
				return err
			}
			c.Log.Info().Msg("default roles seeded")
			return nil
		},
	}
}

func newCleanupCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete verification tokens past the retention horizon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := load(cmd)
			if err != nil {
				return err
			}
			c, err := app.NewStoreContainer(cfg, logging.New(cfg.App.LogLevel, cfg.App.LogFormat))
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Cleanup(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d stale verification tokens\n", n)
			return nil
		},
	}
}
