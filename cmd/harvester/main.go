// Command harvester runs the saved searches on an interval and publishes
// newly seen articles.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/samvad-hq/samvad-news-search/internal/app"
	"github.com/samvad-hq/samvad-news-search/internal/config"
	"github.com/samvad-hq/samvad-news-search/internal/logger"
)

func main() {
	once := pflag.Bool("once", false, "run every enabled search a single time and exit")
	pflag.Parse()

	if err := run(*once); err != nil {
		fmt.Fprintf(os.Stderr, "harvester failed: %v\n", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("harvester starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	harvester, err := app.NewHarvester(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize harvester", "error", err)
		return err
	}

	if once {
		stats, err := harvester.Harvest(ctx)
		logger.InfoObj("single harvest finished", "harvest_stats", stats)
		return err
	}
	if err := harvester.Run(ctx); err != nil {
		return fmt.Errorf("harvester run: %w", err)
	}
	return nil
}
