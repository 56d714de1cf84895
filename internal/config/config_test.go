package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/samvad-news-search/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, `"여의시스템"`, cfg.Keyword)
	assert.Equal(t, "2024.01.01", cfg.StartDate)
	assert.Equal(t, "2024.12.31", cfg.EndDate)
	assert.Equal(t, 200, cfg.MaxPages)
	assert.Equal(t, 2, cfg.RequestRetries)
	assert.Equal(t, "./data/debug_listing.html", cfg.DiagnosticPath)
	assert.Equal(t, time.Hour, cfg.CrawlInterval)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 8*time.Second, cfg.OriginTimeout)

	q, err := cfg.Query()
	require.NoError(t, err)
	assert.Equal(t, domain.SortOldest, q.Sort)
	assert.Equal(t, time.Second, q.DelayMin)
	assert.Equal(t, 2*time.Second, q.DelayMax)
	assert.Equal(t, "2024.12.31", q.EndDate.Format(domain.DateLayout))
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("MAX_PAGES", "7")
	t.Setenv("SORT", "relevance")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--keyword=반도체", "--sort=newest", "--delay-min-ms=10", "--origin-fetch=false"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "반도체", cfg.Keyword)
	assert.Equal(t, 7, cfg.MaxPages)
	assert.False(t, cfg.OriginFetch)

	q, err := cfg.Query()
	require.NoError(t, err)
	assert.Equal(t, domain.SortNewest, q.Sort)
	assert.Equal(t, 10*time.Millisecond, q.DelayMin)
}

func TestLoadRejectsInvalidDurations(t *testing.T) {
	t.Setenv("CRAWL_INTERVAL", "0")
	_, err := Load(nil)
	assert.Error(t, err)
}

func TestQueryRejectsBadValues(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	bad := *cfg
	bad.StartDate = "2024-13-01"
	_, err = bad.Query()
	assert.True(t, errors.Is(err, domain.ErrInvalidQuery), "got %v", err)

	bad = *cfg
	bad.StartDate, bad.EndDate = cfg.EndDate, cfg.StartDate
	_, err = bad.Query()
	assert.True(t, errors.Is(err, domain.ErrInvalidQuery), "got %v", err)

	bad = *cfg
	bad.MaxPages = 0
	_, err = bad.Query()
	assert.True(t, errors.Is(err, domain.ErrInvalidQuery), "got %v", err)
}

func TestListingHeadersOmitsEmpty(t *testing.T) {
	cfg := &Config{UserAgent: "agent/1.0"}
	assert.Equal(t, map[string]string{"User-Agent": "agent/1.0"}, cfg.ListingHeaders())
}
