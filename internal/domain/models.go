package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Domain contains core models shared by the extractor, crawler and exporters.

// DateLayout is the canonical calendar-date layout used for record dates and
// the listing date filter.
const DateLayout = "2006.01.02"

// ErrInvalidQuery marks a search query rejected before any request is issued.
var ErrInvalidQuery = errors.New("invalid search query")

// Record is one matched news item scraped from a listing page.
type Record struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	Source string `json:"source"`
	Link   string `json:"link"`
}

// SortMode selects the listing order; the numeric value is the wire code.
type SortMode int

const (
	SortRelevance SortMode = 0
	SortNewest    SortMode = 1
	SortOldest    SortMode = 2
)

func (s SortMode) String() string {
	switch s {
	case SortRelevance:
		return "relevance"
	case SortNewest:
		return "newest"
	case SortOldest:
		return "oldest"
	default:
		return "sort(" + strconv.Itoa(int(s)) + ")"
	}
}

// Valid reports whether s is one of the known sort codes.
func (s SortMode) Valid() bool {
	return s == SortRelevance || s == SortNewest || s == SortOldest
}

// ParseSortMode accepts a sort name or its numeric code.
func ParseSortMode(raw string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "relevance", "0":
		return SortRelevance, nil
	case "newest", "latest", "1":
		return SortNewest, nil
	case "oldest", "2":
		return SortOldest, nil
	default:
		return 0, fmt.Errorf("%w: unknown sort mode %q", ErrInvalidQuery, raw)
	}
}

// SearchQuery is the immutable configuration of a single crawl.
type SearchQuery struct {
	Keyword   string
	StartDate time.Time
	EndDate   time.Time
	Sort      SortMode
	MaxPages  int
	DelayMin  time.Duration
	DelayMax  time.Duration
}

// Validate rejects queries that must never reach the network.
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Keyword) == "" {
		return fmt.Errorf("%w: keyword is required", ErrInvalidQuery)
	}
	if q.StartDate.IsZero() || q.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidQuery)
	}
	if q.StartDate.After(q.EndDate) {
		return fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidQuery, q.StartDate.Format(DateLayout), q.EndDate.Format(DateLayout))
	}
	if !q.Sort.Valid() {
		return fmt.Errorf("%w: unknown sort mode %d", ErrInvalidQuery, int(q.Sort))
	}
	if q.MaxPages < 1 {
		return fmt.Errorf("%w: max pages must be at least 1", ErrInvalidQuery)
	}
	if q.DelayMin < 0 || q.DelayMax < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidQuery)
	}
	return nil
}

// DelayBounds returns the delay range ordered low to high.
func (q SearchQuery) DelayBounds() (time.Duration, time.Duration) {
	if q.DelayMin > q.DelayMax {
		return q.DelayMax, q.DelayMin
	}
	return q.DelayMin, q.DelayMax
}

// ParseDate parses a YYYY.MM.DD calendar date in the given zone.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must look like YYYY.MM.DD", ErrInvalidQuery, raw)
	}
	return t, nil
}
