package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/samvad-news-search/internal/config"
	"github.com/samvad-hq/samvad-news-search/internal/logger"
	"github.com/samvad-hq/samvad-news-search/internal/storage"
	"github.com/samvad-hq/samvad-news-search/pkg/publishers"
	"github.com/samvad-hq/samvad-news-search/pkg/searches"
)

// Dispatcher fans events out to downstream sinks.
type Dispatcher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
	Routes(searchID string) int
	Size() int
	Close() error
}

// Harvester runs the saved searches on an interval and publishes records
// that were not published before.
type Harvester struct {
	cfg           *config.Config
	searchReg     *searches.Registry
	fanout        Dispatcher
	crawl         Crawler
	crawlInterval time.Duration
	log           logger.Logger
	store         storage.Store
	now           func() time.Time
	newRunID      func() string
}

// RunStats summarizes one pass over the saved searches.
type RunStats struct {
	RunID     string
	Searches  int
	Collected int
	Published int
	Skipped   int
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	searchReg, err := searches.LoadRegistry(cfg.SearchesFile)
	if err != nil {
		return nil, fmt.Errorf("load searches registry: %w", err)
	}
	ids := searchReg.IDs()
	log.InfoObj("searches registry loaded", "searches_meta", map[string]any{
		"count":   len(ids),
		"enabled": len(searchReg.Enabled()),
		"ids":     ids,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}
	enabledIDs := make([]string, 0, len(searchReg.Enabled()))
	for _, s := range searchReg.Enabled() {
		enabledIDs = append(enabledIDs, s.ID)
	}
	if err := publisherReg.CheckSearches(ids, enabledIDs); err != nil {
		return nil, fmt.Errorf("publisher routing: %w", err)
	}
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	summaries := make([]map[string]any, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		summaries = append(summaries, map[string]any{"id": pubCfg.ID, "type": pubCfg.Type, "searches": pubCfg.Searches})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})

	storePath := cfg.BBoltPath
	if cfg.StorageType == "sqlite" || cfg.StorageType == "sqlite3" {
		storePath = cfg.SQLitePath
	}
	store, err := storage.NewStore(cfg.StorageType, storePath, storage.Options{
		RecordTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     storePath,
		"record_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Harvester{
		cfg:           cfg,
		searchReg:     searchReg,
		fanout:        fanout,
		crawl:         newCrawlService(cfg, nil, log),
		crawlInterval: cfg.CrawlInterval,
		log:           log,
		store:         store,
		now:           time.Now,
		newRunID:      uuid.NewString,
	}, nil
}

// Run starts the harvest loop until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.crawl == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	list := h.searchReg.Enabled()
	if len(list) == 0 {
		h.log.WarnObj("no enabled searches; harvester idle", "searches_file", h.cfg.SearchesFile)
		<-ctx.Done()
		return nil
	}

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"searches_count":   len(list),
		"publishers_count": h.fanout.Size(),
		"crawl_interval":   h.crawlInterval.String(),
	})

	if _, err := h.RunOnce(ctx, list); err != nil {
		h.log.ErrorObj("initial harvest failed", "error", err)
	}

	ticker := time.NewTicker(h.crawlInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := h.RunOnce(ctx, list); err != nil {
				h.log.ErrorObj("scheduled harvest failed", "error", err)
			}
		}
	}
}

// Harvest runs every enabled search once and releases the harvester.
func (h *Harvester) Harvest(ctx context.Context) (RunStats, error) {
	if h == nil || h.crawl == nil {
		return RunStats{}, fmt.Errorf("harvester is not initialized")
	}
	defer h.close()
	return h.RunOnce(ctx, h.searchReg.Enabled())
}

// RunOnce crawls every search in list and publishes unseen records. A record
// is marked seen once at least one publisher accepted it.
func (h *Harvester) RunOnce(ctx context.Context, list []searches.Search) (RunStats, error) {
	stats := RunStats{RunID: h.newRunID()}
	start := h.now()
	h.log.InfoObj("harvest started", "harvest_meta", map[string]any{
		"run_id":         stats.RunID,
		"searches_count": len(list),
		"started_at":     start.UTC(),
	})

	var errs []error
	for _, s := range list {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		stats.Searches++
		if err := h.harvestSearch(ctx, s, &stats); err != nil {
			errs = append(errs, fmt.Errorf("search %q: %w", s.ID, err))
		}
	}

	h.log.InfoObj("harvest completed", "harvest_meta", map[string]any{
		"run_id":     stats.RunID,
		"searches":   stats.Searches,
		"collected":  stats.Collected,
		"published":  stats.Published,
		"skipped":    stats.Skipped,
		"elapsed_ms": h.now().Sub(start).Milliseconds(),
	})
	return stats, errors.Join(errs...)
}

func (h *Harvester) harvestSearch(ctx context.Context, s searches.Search, stats *RunStats) error {
	if h.fanout.Routes(s.ID) == 0 {
		h.log.WarnObj("search has no publisher route; skipped", "search_id", s.ID)
		return nil
	}
	q, err := s.Query(h.now())
	if err != nil {
		return err
	}
	res, err := h.crawl.Crawl(ctx, q)
	if err != nil {
		return err
	}
	stats.Collected += len(res.Records)

	var errs []error
	if res.Stop.Failed() {
		h.log.WarnObj("search stopped on failed request", "harvest_search", map[string]any{
			"search_id": s.ID,
			"records":   len(res.Records),
			"error":     res.Err.Error(),
		})
		errs = append(errs, res.Err)
	}

	for _, rec := range res.Records {
		key := storage.RecordKey(s.ID, rec.Link)
		seen, err := h.store.SeenRecord(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("check seen record: %w", err))
			continue
		}
		if seen {
			stats.Skipped++
			continue
		}

		delivered, err := h.fanout.Publish(ctx, publishers.NewEvent(stats.RunID, s.ID, s.Keyword, rec))
		if err != nil {
			h.log.WarnObj("publish failed", "harvest_publish", map[string]any{
				"search_id": s.ID,
				"link":      rec.Link,
				"delivered": delivered,
				"error":     err.Error(),
			})
			errs = append(errs, err)
		}
		if delivered == 0 {
			continue
		}
		stats.Published++
		if err := h.store.MarkRecord(key); err != nil {
			errs = append(errs, fmt.Errorf("mark record: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (h *Harvester) close() {
	if h == nil {
		return
	}
	if h.fanout != nil {
		if err := h.fanout.Close(); err != nil {
			h.log.ErrorObj("publishers close failed", "error", err)
		}
	}
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			h.log.ErrorObj("storage close failed", "error", err)
		}
	}
}
