// Package cmd defines and implements the CLI commands for the supermovie executable.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/supermovie/internal/app"
	"github.com/JakeFAU/supermovie/internal/config"
	"github.com/JakeFAU/supermovie/internal/crawler"
	"github.com/JakeFAU/supermovie/internal/logging"
)

// Runner is the part of the application the crawl command drives. It lets
// tests substitute a fake application.
type Runner interface {
	Run(ctx context.Context) (crawler.RunSummary, error)
	Tracker() *crawler.Tracker
	Close() error
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (Runner, error) {
	return app.New(ctx, cfg, logger)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "supermovie",
		Short: "Crawls the release calendar into a movies and casts database.",
		Long: `supermovie reads the movie database's release calendar, follows every
listed movie to its director and stars, looks up each person's known-for
scores, and replaces the movies and casts tables with the result. Every page
is cached, so a repeated run only fetches what it has not seen before.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml, or json)")

	cmd.AddCommand(newCrawlCmd(&cfgFile))
	cmd.AddCommand(newDateCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	logger, err := logging.New(false)
	if err != nil {
		logger = zap.NewExample()
	}
	execute(newRootCmd(), logger)
}

func execute(cmd *cobra.Command, logger *zap.Logger) {
	if err := cmd.Execute(); err != nil {
		logger.Fatal("command execution failed", zap.Error(err))
	}
}
