package crawler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-search/internal/domain"
	"github.com/samvad-hq/samvad-news-search/internal/extract"
	"github.com/samvad-hq/samvad-news-search/internal/logger"
	"github.com/samvad-hq/samvad-news-search/pkg/httpclient"
)

// StopReason names the condition that ended a crawl.
type StopReason string

const (
	StopMaxPages     StopReason = "max_pages"
	StopTransport    StopReason = "transport_error"
	StopStatus       StopReason = "bad_status"
	StopNoResults    StopReason = "no_results"
	StopNoNewRecords StopReason = "no_new_records"
	StopCancelled    StopReason = "cancelled"
)

// Failed reports whether the crawl stopped because a request failed.
func (r StopReason) Failed() bool {
	return r == StopTransport || r == StopStatus
}

// ProgressFunc receives human-readable progress lines.
type ProgressFunc func(line string)

// Result is what a crawl accumulated and why it stopped.
type Result struct {
	Records       []domain.Record
	Pages         int
	Requests      int
	Stop          StopReason
	Err           error
	OriginFetches int
	// DiagnosticPath is set when the raw response of an empty page was saved.
	DiagnosticPath string
}

// Options configures a Service.
type Options struct {
	Endpoint       string
	Headers        map[string]string
	DiagnosticPath string
	Progress       ProgressFunc
	Origin         extract.DateFetcher
	Clock          func() time.Time
}

// Service drives paginated listing crawls. It keeps no per-crawl state, so
// concurrent Crawl calls each get their own offsets and seen-link sets.
type Service struct {
	client         httpclient.Client
	endpoint       string
	headers        map[string]string
	diagnosticPath string
	progress       ProgressFunc
	origin         extract.DateFetcher
	now            func() time.Time
	log            logger.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(lo, hi time.Duration) time.Duration
}

// NewService wires a crawler with its HTTP client.
func NewService(client httpclient.Client, opts Options, log logger.Logger) *Service {
	s := &Service{
		client:         client,
		endpoint:       opts.Endpoint,
		headers:        opts.Headers,
		diagnosticPath: opts.DiagnosticPath,
		progress:       opts.Progress,
		origin:         opts.Origin,
		now:            opts.Clock,
		log:            logger.Ensure(log),
		sleep:          sleepContext,
		jitter:         uniformJitter,
	}
	if s.endpoint == "" {
		s.endpoint = DefaultEndpoint
	}
	if s.headers == nil {
		s.headers = DefaultHeaders()
	}
	if s.progress == nil {
		s.progress = func(string) {}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Crawl pages through the listing for q until exhaustion, a failed request,
// the page limit or cancellation. Only an invalid query is returned as an
// error; request failures are reported on the Result with whatever was
// collected so far.
func (s *Service) Crawl(ctx context.Context, q domain.SearchQuery) (Result, error) {
	if s == nil || s.client == nil {
		return Result{}, fmt.Errorf("crawler service is not initialized")
	}
	if err := q.Validate(); err != nil {
		return Result{}, err
	}

	opts := []extract.Option{extract.WithClock(s.now)}
	var origin *countingFetcher
	if s.origin != nil {
		origin = &countingFetcher{next: s.origin}
		opts = append(opts, extract.WithDateFetcher(origin))
	}
	extractor := extract.New(q.Keyword, opts...)

	state := newCrawlState()
	acc := &Accumulator{}
	res := Result{}
	delayMin, delayMax := q.DelayBounds()

	finish := func(reason StopReason, err error) (Result, error) {
		res.Records = acc.Records()
		res.Pages = state.pageCount
		res.Stop = reason
		res.Err = err
		if origin != nil {
			res.OriginFetches = origin.calls
		}
		s.log.InfoObj("crawl finished", "crawl_result", map[string]any{
			"keyword":        q.Keyword,
			"records":        len(res.Records),
			"pages":          res.Pages,
			"requests":       res.Requests,
			"stop":           string(reason),
			"origin_fetches": res.OriginFetches,
		})
		return res, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			s.progress("crawl cancelled before next page")
			return finish(StopCancelled, err)
		}

		state.pageCount++

		pageURL := BuildListingURL(s.endpoint, q, state.offset)
		s.progress("[request] " + pageURL)
		body, reason, err := s.fetch(ctx, pageURL)
		res.Requests++
		if err != nil {
			s.progress(fmt.Sprintf("request failed at start=%d: %v", state.offset, err))
			s.log.WarnObj("listing request failed", "listing_error", map[string]any{
				"url":   pageURL,
				"error": err.Error(),
			})
			return finish(reason, err)
		}

		page, err := extractor.ExtractHTML(ctx, body, pageURL)
		if err != nil {
			s.log.WarnObj("listing parse failed", "listing_error", map[string]any{
				"url":   pageURL,
				"error": err.Error(),
			})
		}
		if len(page.Records) == 0 {
			res.DiagnosticPath = s.saveDiagnostic(body)
			if page.Containers == 0 {
				s.progress(fmt.Sprintf("page start=%d has no result containers (markup mismatch or end of results); raw response: %s",
					state.offset, diagnosticLabel(res.DiagnosticPath)))
			} else {
				s.progress(fmt.Sprintf("page start=%d has %d containers but no parseable records; raw response: %s",
					state.offset, page.Containers, diagnosticLabel(res.DiagnosticPath)))
			}
			return finish(StopNoResults, nil)
		}

		newCount := 0
		for _, rec := range page.Records {
			if !state.admit(rec.Link) {
				continue
			}
			acc.Add(rec)
			newCount++
		}
		s.progress(fmt.Sprintf("page start=%d collected %d / new %d", state.offset, len(page.Records), newCount))
		s.log.DebugObj("listing page processed", "page_result", map[string]any{
			"offset":     state.offset,
			"containers": page.Containers,
			"records":    len(page.Records),
			"new":        newCount,
			"total":      acc.Len(),
		})

		state.offset += pageSize

		if newCount == 0 {
			s.progress("no new records on this page; stopping early")
			return finish(StopNoNewRecords, nil)
		}
		if state.pageCount >= q.MaxPages {
			s.progress(fmt.Sprintf("stopping: max pages (%d) reached", q.MaxPages))
			return finish(StopMaxPages, nil)
		}

		if err := s.sleep(ctx, s.jitter(delayMin, delayMax)); err != nil {
			s.progress("crawl cancelled while waiting for next page")
			return finish(StopCancelled, err)
		}
	}
}

// fetch issues one listing request. The request itself is not interrupted
// by cancellation of ctx.
func (s *Service) fetch(ctx context.Context, pageURL string) ([]byte, StopReason, error) {
	resp, err := s.client.Get(context.WithoutCancel(ctx), pageURL, s.headers)
	if err != nil {
		return nil, StopTransport, fmt.Errorf("fetch listing: %w", err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, StopStatus, fmt.Errorf("listing returned status %d body: %s", resp.StatusCode(), responseSnippet(body))
	}
	return body, "", nil
}

// saveDiagnostic overwrites the diagnostic file with body and returns its path.
func (s *Service) saveDiagnostic(body []byte) string {
	if s.diagnosticPath == "" {
		return ""
	}
	if dir := filepath.Dir(s.diagnosticPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.log.WarnObj("diagnostic directory create failed", "diagnostic_error", map[string]any{
				"path":  s.diagnosticPath,
				"error": err.Error(),
			})
			return ""
		}
	}
	if err := os.WriteFile(s.diagnosticPath, body, 0o644); err != nil {
		s.log.WarnObj("diagnostic write failed", "diagnostic_error", map[string]any{
			"path":  s.diagnosticPath,
			"error": err.Error(),
		})
		return ""
	}
	return s.diagnosticPath
}

func diagnosticLabel(path string) string {
	if path == "" {
		return "<not saved>"
	}
	return path
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

func uniformJitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// countingFetcher counts origin fallbacks for one crawl.
type countingFetcher struct {
	next  extract.DateFetcher
	calls int
}

func (c *countingFetcher) FetchDate(ctx context.Context, link string) string {
	c.calls++
	return c.next.FetchDate(ctx, link)
}
