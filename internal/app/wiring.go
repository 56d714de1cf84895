package app

import (
	"context"

	"github.com/samvad-hq/samvad-news-search/internal/config"
	"github.com/samvad-hq/samvad-news-search/internal/crawler"
	"github.com/samvad-hq/samvad-news-search/internal/domain"
	"github.com/samvad-hq/samvad-news-search/internal/extract"
	"github.com/samvad-hq/samvad-news-search/internal/logger"
	"github.com/samvad-hq/samvad-news-search/pkg/httpclient"
)

// Crawler runs one paginated search.
type Crawler interface {
	Crawl(ctx context.Context, q domain.SearchQuery) (crawler.Result, error)
}

// newCrawlService builds the listing crawler from config: one resty client
// with browser headers and light retries, plus an optional origin fetcher.
func newCrawlService(cfg *config.Config, progress crawler.ProgressFunc, log logger.Logger) *crawler.Service {
	headers := crawler.DefaultHeaders()
	for k, v := range cfg.ListingHeaders() {
		headers[k] = v
	}

	client := httpclient.NewRestyClient(cfg.RequestTimeout,
		httpclient.WithRetries(cfg.RequestRetries),
		httpclient.WithHeaders(headers),
	)

	opts := crawler.Options{
		Endpoint:       cfg.SearchEndpoint,
		Headers:        headers,
		DiagnosticPath: cfg.DiagnosticPath,
		Progress:       progress,
	}
	if cfg.OriginFetch {
		opts.Origin = extract.NewOriginFetcher(client, headers, extract.OriginOptions{
			Timeout:           cfg.OriginTimeout,
			RequestsPerSecond: cfg.OriginRPS,
		}, log)
	}

	return crawler.NewService(client, opts, log)
}
