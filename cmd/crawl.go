package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/supermovie/internal/api"
	"github.com/JakeFAU/supermovie/internal/config"
	"github.com/JakeFAU/supermovie/internal/logging"
	"github.com/JakeFAU/supermovie/internal/telemetry"
)

// newCrawlCmd creates the 'crawl' subcommand, which runs the whole pipeline
// once and exits.
func newCrawlCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the calendar and replace the output tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, *cfgFile)
		},
	}
}

func runCrawl(cmd *cobra.Command, cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil && !errors.Is(syncErr, syscall.ENOTTY) && !errors.Is(syncErr, syscall.EINVAL) {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.InitTracerProvider(ctx, logging.Service)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	application, err := newApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application services: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close application services", zap.Error(err))
		}
	}()

	if cfg.Server.Addr != "" {
		srvCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		defer func() {
			cancel()
			<-done
		}()
		server := api.NewServer(application.Tracker(), logger)
		go func() {
			defer close(done)
			if err := server.ListenAndServe(srvCtx, cfg.Server.Addr); err != nil {
				logger.Error("status server stopped", zap.Error(err))
			}
		}()
	}

	summary, err := application.Run(ctx)
	if err != nil {
		return fmt.Errorf("run %s: %w", summary.RunID, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s %s: %d movies, %d cast members, %d fetches, %d cache hits\n",
		summary.RunID, summary.Status, summary.Movies, summary.Casts, summary.Fetches, summary.CacheHits)
	return nil
}
