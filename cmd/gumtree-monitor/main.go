package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"gumtree-monitor/internal/app"
	"gumtree-monitor/internal/config"
	"gumtree-monitor/internal/fetcher"
	"gumtree-monitor/internal/normalize"
	"gumtree-monitor/internal/notifier"
	"gumtree-monitor/internal/observability"
	"gumtree-monitor/internal/scraper"
	"gumtree-monitor/internal/storage/jsonfile"
)

func main() {
	var (
		configPath string
		once       bool
	)

	cmd := &cobra.Command{
		Use:           "gumtree-monitor",
		Short:         "Watch a Gumtree search and post new listings to Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, once)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to config file")
	cmd.Flags().BoolVar(&once, "once", false, "run a single check and exit")

	if err := cmd.Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run(configPath string, once bool) error {
	if err := config.LoadEnvFiles(); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.NewLogger(observability.Options{
		LogPath:        cfg.Observability.LogPath,
		LogLevel:       cfg.Observability.LogLevel,
		MaxSizeMB:      cfg.Observability.LogMaxSizeMB,
		MaxBackups:     cfg.Observability.LogMaxBackups,
		MaxAgeDays:     cfg.Observability.LogMaxAgeDays,
		ConsoleEnabled: cfg.Observability.ConsoleEnabled,
	})
	defer func() { _ = logger.Sync() }()

	logger.Info("Notifications will be sent to chat", "chat_id", cfg.Telegram.ChatID)

	selectors, err := cfg.Selectors()
	if err != nil {
		return fmt.Errorf("failed to load selectors: %w", err)
	}

	sched, err := app.NewScheduler(cfg)
	if err != nil {
		return err
	}
	if once {
		sched = nil
	}

	var pageFetcher app.PageFetcher
	if cfg.Rod.Enabled {
		rf, err := fetcher.NewRodFetcher(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := rf.Close(); err != nil {
				logger.Warn("Failed to close browser", "error", err.Error())
			}
		}()
		pageFetcher = rf
	} else {
		pageFetcher = fetcher.NewFetcher(cfg, logger)
	}

	normalizer := normalize.NewNormalizer(normalize.Options{
		TrimNBSP:       cfg.Normalize.TrimNBSP,
		CollapseSpaces: cfg.Normalize.CollapseSpaces,
		MaxTitleChars:  cfg.Normalize.MaxTitleChars,
	})

	orchestrator := app.NewOrchestrator(
		cfg,
		logger,
		pageFetcher,
		scraper.NewScraper(selectors, cfg.Search.BaseURL, normalizer, logger),
		notifier.NewTelegram(cfg, logger),
		jsonfile.NewStore(cfg.Storage.SeenFile, logger),
		sched,
	)

	ctx, cancel := app.GracefulShutdown(logger)
	defer cancel()

	if err := orchestrator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
