package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samvad-hq/samvad-news-search/internal/config"
	"github.com/samvad-hq/samvad-news-search/internal/crawler"
	"github.com/samvad-hq/samvad-news-search/internal/domain"
	"github.com/samvad-hq/samvad-news-search/internal/export"
	"github.com/samvad-hq/samvad-news-search/internal/logger"
)

// SearchOutcome is what a one-shot search produced.
type SearchOutcome struct {
	Result     crawler.Result
	OutputPath string
}

// Summary is the user-facing line for the outcome. An empty result caused
// by a failed request reads differently from an exhausted listing.
func (o SearchOutcome) Summary() string {
	n := len(o.Result.Records)
	switch {
	case n == 0 && o.Result.Stop.Failed():
		return fmt.Sprintf("no articles collected: search stopped after a failed request (%v)", o.Result.Err)
	case n == 0 && o.Result.Stop == crawler.StopCancelled:
		return "no articles collected: search cancelled"
	case n == 0:
		return "no articles matched the search"
	case o.Result.Stop.Failed():
		return fmt.Sprintf("collected %d articles before a failed request (%v); saved to %s", n, o.Result.Err, o.OutputPath)
	default:
		return fmt.Sprintf("collected %d articles; saved to %s", n, o.OutputPath)
	}
}

// Searcher runs a single query and exports whatever it collected.
type Searcher struct {
	crawl     Crawler
	exporter  export.Exporter
	outputDir string
	output    string
	log       logger.Logger
}

// NewSearcher wires a one-shot searcher from config.
func NewSearcher(cfg *config.Config, progress crawler.ProgressFunc, log logger.Logger) (*Searcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	exp, err := export.ForFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	return &Searcher{
		crawl:     newCrawlService(cfg, progress, log),
		exporter:  exp,
		outputDir: cfg.OutputDir,
		output:    cfg.Output,
		log:       log,
	}, nil
}

// Run crawls q and writes the records. Nothing is written when no record
// was collected.
func (s *Searcher) Run(ctx context.Context, q domain.SearchQuery) (SearchOutcome, error) {
	if s == nil || s.crawl == nil {
		return SearchOutcome{}, fmt.Errorf("searcher is not initialized")
	}

	res, err := s.crawl.Crawl(ctx, q)
	if err != nil {
		return SearchOutcome{}, fmt.Errorf("crawl: %w", err)
	}
	out := SearchOutcome{Result: res}
	if len(res.Records) == 0 {
		s.log.WarnObj("search collected no records", "search_result", map[string]any{
			"keyword":    q.Keyword,
			"stop":       string(res.Stop),
			"requests":   res.Requests,
			"diagnostic": res.DiagnosticPath,
		})
		return out, nil
	}

	path := s.output
	if path == "" {
		path = filepath.Join(s.outputDir, export.DefaultFileName(q.Keyword, q.StartDate, s.exporter))
	}
	if err := export.WriteFile(path, s.exporter, res.Records); err != nil {
		return out, err
	}
	out.OutputPath = path

	s.log.InfoObj("search exported", "search_result", map[string]any{
		"keyword": q.Keyword,
		"records": len(res.Records),
		"format":  s.exporter.Format(),
		"path":    path,
		"stop":    string(res.Stop),
	})
	return out, nil
}
