// Command newsearch runs one news search and exports the collected articles.
package main

import (
	"context"
	"errors"
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
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "newsearch: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	fs := pflag.NewFlagSet("newsearch", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, nil
		}
		return 2, err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return 2, fmt.Errorf("load config: %w", err)
	}
	q, err := cfg.Query()
	if err != nil {
		return 2, err
	}

	log, err := logger.InitStderr(cfg)
	if err != nil {
		return 1, fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	progress := func(line string) { fmt.Fprintln(os.Stderr, line) }
	searcher, err := app.NewSearcher(cfg, progress, log)
	if err != nil {
		return 2, err
	}

	outcome, err := searcher.Run(ctx, q)
	if err != nil {
		return 1, err
	}
	fmt.Println(outcome.Summary())

	switch {
	case outcome.Result.Stop.Failed():
		return 1, nil
	case len(outcome.Result.Records) == 0:
		return 3, nil
	default:
		return 0, nil
	}
}
