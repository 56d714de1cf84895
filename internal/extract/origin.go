package extract

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/samvad-news-search/internal/dates"
	"github.com/samvad-hq/samvad-news-search/internal/logger"
	"github.com/samvad-hq/samvad-news-search/pkg/httpclient"
	"golang.org/x/time/rate"
)

const (
	maxOriginBodyBytes   = 1 << 20 // 1 MiB
	defaultOriginTimeout = 8 * time.Second
)

// OriginOptions tunes the origin-document fallback.
type OriginOptions struct {
	Timeout time.Duration
	// RequestsPerSecond caps origin fetches; zero or less disables pacing.
	RequestsPerSecond float64
}

// OriginFetcher fetches article pages to recover publish dates that the
// listing did not expose. Every call is a network round-trip, so calls are
// paced and counted.
type OriginFetcher struct {
	client  httpclient.Client
	headers map[string]string
	timeout time.Duration
	limiter *rate.Limiter
	log     logger.Logger
	calls   atomic.Int64
	hits    atomic.Int64
}

// NewOriginFetcher builds an origin date fetcher on top of client.
func NewOriginFetcher(client httpclient.Client, headers map[string]string, opts OriginOptions, log logger.Logger) *OriginFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultOriginTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &OriginFetcher{
		client:  client,
		headers: headers,
		timeout: opts.Timeout,
		limiter: limiter,
		log:     logger.Ensure(log),
	}
}

// FetchDate returns the article's publish date or "" on any failure.
// Cancellation of ctx does not cut a fetch short; the crawl honours it
// between pages.
func (o *OriginFetcher) FetchDate(ctx context.Context, link string) string {
	if o == nil || o.client == nil || link == "" {
		return ""
	}
	pageURL, err := url.Parse(link)
	if err != nil || !pageURL.IsAbs() {
		return ""
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()

	if err := o.limiter.Wait(ctx); err != nil {
		return ""
	}
	n := o.calls.Add(1)

	resp, err := o.client.Get(ctx, link, o.headers)
	if err != nil {
		o.log.WarnObj("origin date fetch failed", "origin_error", map[string]any{
			"url":   link,
			"error": err.Error(),
		})
		return ""
	}
	if resp.StatusCode() != http.StatusOK {
		o.log.WarnObj("origin date fetch returned non-200", "origin_error", map[string]any{
			"url":    link,
			"status": resp.StatusCode(),
		})
		return ""
	}

	body := resp.Body()
	if len(body) > maxOriginBodyBytes {
		body = body[:maxOriginBodyBytes]
	}
	d := dates.ExtractFromDocumentURL(string(body), pageURL)
	if d != "" {
		o.hits.Add(1)
	}
	o.log.DebugObj("origin date fetched", "origin_result", map[string]any{
		"url":         link,
		"date":        d,
		"calls_total": n,
	})
	return d
}

// Calls reports how many origin fetches were issued.
func (o *OriginFetcher) Calls() int64 {
	if o == nil {
		return 0
	}
	return o.calls.Load()
}

// Hits reports how many origin fetches produced a date.
func (o *OriginFetcher) Hits() int64 {
	if o == nil {
		return 0
	}
	return o.hits.Load()
}
