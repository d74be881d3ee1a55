package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"togetherdo/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(logger).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand(logger *logrus.Logger) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:           "togetherdo",
		Short:         "Friend nudges, cheers and verification codes for TogetherDo",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newServeCommand(logger))
	cmd.AddCommand(newMigrateCommand(logger))
	cmd.AddCommand(newSweepCommand(logger))
	return cmd
}

func newMigrateCommand(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			db, err := config.ConnectionDb(ctx, cfg)
			if err != nil {
				return err
			}
			if err := config.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migration finished")
			return nil
		},
	}
}

func newSweepCommand(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete spent verification codes and expired sessions once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			app, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()
			_, err = app.Sweeper.RunOnce(ctx)
			return err
		},
	}
}
