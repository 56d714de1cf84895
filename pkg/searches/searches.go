// Package searches loads saved search definitions (YAML/JSON) run by the
// harvester.
package searches

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-news-search/internal/dates"
	"github.com/samvad-hq/samvad-news-search/internal/domain"
	"github.com/samvad-hq/samvad-news-search/pkg/configfile"
)

const (
	defaultMaxPages   = 200
	defaultDelayMinMs = 1000
	defaultDelayMaxMs = 2000
	defaultSort       = "oldest"
)

// Search is one saved query. Dates may be absolute (YYYY.MM.DD) or omitted,
// in which case the window is the trailing LookbackDays ending today (KST).
// Keyword and dates may reference environment variables as ${NAME}.
type Search struct {
	ID           string `json:"id" yaml:"id"`
	Keyword      string `json:"keyword" yaml:"keyword"`
	StartDate    string `json:"start_date" yaml:"start_date"`
	EndDate      string `json:"end_date" yaml:"end_date"`
	LookbackDays int    `json:"lookback_days" yaml:"lookback_days"`
	Sort         string `json:"sort" yaml:"sort"`
	MaxPages     int    `json:"max_pages" yaml:"max_pages"`
	DelayMinMs   int    `json:"delay_min_ms" yaml:"delay_min_ms"`
	DelayMaxMs   int    `json:"delay_max_ms" yaml:"delay_max_ms"`
	Enabled      *bool  `json:"enabled" yaml:"enabled"`
}

type fileRegistry struct {
	Searches []Search `json:"searches" yaml:"searches"`
}

// Registry holds the saved searches loaded from a file.
type Registry struct {
	mu       sync.RWMutex
	searches []Search
	idx      map[string]Search
}

// LoadRegistry loads the saved searches from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	var fr fileRegistry
	if err := configfile.Decode(path, "searches", &fr); err != nil {
		return nil, err
	}
	if len(fr.Searches) == 0 {
		return nil, errors.New("searches file contains no searches entries")
	}

	reg := &Registry{
		searches: make([]Search, len(fr.Searches)),
		idx:      make(map[string]Search, len(fr.Searches)),
	}
	for i := range fr.Searches {
		s := sanitizeSearch(fr.Searches[i])
		if err := validateSearch(s); err != nil {
			return nil, fmt.Errorf("searches[%d]: %w", i, err)
		}
		if _, exists := reg.idx[s.ID]; exists {
			return nil, fmt.Errorf("duplicate search id %q", s.ID)
		}
		reg.searches[i] = s
		reg.idx[s.ID] = s
	}
	return reg, nil
}

// IDs returns the ids of all saved searches in file order.
func (r *Registry) IDs() []string {
	all := r.All()
	ids := make([]string, 0, len(all))
	for _, s := range all {
		ids = append(ids, s.ID)
	}
	return ids
}

func sanitizeSearch(s Search) Search {
	s.ID = strings.TrimSpace(s.ID)
	s.Keyword = configfile.Expand(s.Keyword)
	s.StartDate = configfile.Expand(s.StartDate)
	s.EndDate = configfile.Expand(s.EndDate)
	s.Sort = strings.ToLower(strings.TrimSpace(s.Sort))
	if s.Sort == "" {
		s.Sort = defaultSort
	}
	if s.MaxPages <= 0 {
		s.MaxPages = defaultMaxPages
	}
	if s.DelayMinMs <= 0 {
		s.DelayMinMs = defaultDelayMinMs
	}
	if s.DelayMaxMs <= 0 {
		s.DelayMaxMs = defaultDelayMaxMs
	}
	if s.Enabled == nil {
		def := true
		s.Enabled = &def
	}
	return s
}

func validateSearch(s Search) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.Keyword == "" {
		return fmt.Errorf("keyword is required for search %q", s.ID)
	}
	if (s.StartDate == "") != (s.EndDate == "") {
		return fmt.Errorf("start_date and end_date must be set together for search %q", s.ID)
	}
	if s.StartDate == "" && s.LookbackDays <= 0 {
		return fmt.Errorf("either a date range or lookback_days is required for search %q", s.ID)
	}
	if _, err := domain.ParseSortMode(s.Sort); err != nil {
		return fmt.Errorf("search %q: %w", s.ID, err)
	}
	return nil
}

// ByID returns the search by id.
func (r *Registry) ByID(id string) (Search, bool) {
	if r == nil {
		return Search{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.idx[strings.TrimSpace(id)]
	return s, ok
}

// All returns all saved searches in file order.
func (r *Registry) All() []Search {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Search, len(r.searches))
	copy(out, r.searches)
	return out
}

// Enabled returns searches that are enabled.
func (r *Registry) Enabled() []Search {
	var out []Search
	for _, s := range r.All() {
		if s.EnabledValue() {
			out = append(out, s)
		}
	}
	return out
}

// EnabledValue returns the enabled flag defaulting to true.
func (s Search) EnabledValue() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// Query resolves the search into a validated query as of now.
func (s Search) Query(now time.Time) (domain.SearchQuery, error) {
	sort, err := domain.ParseSortMode(s.Sort)
	if err != nil {
		return domain.SearchQuery{}, err
	}

	var start, end time.Time
	if s.StartDate != "" {
		if start, err = domain.ParseDate(s.StartDate, dates.KST); err != nil {
			return domain.SearchQuery{}, err
		}
		if end, err = domain.ParseDate(s.EndDate, dates.KST); err != nil {
			return domain.SearchQuery{}, err
		}
	} else {
		y, m, d := now.In(dates.KST).Date()
		end = time.Date(y, m, d, 0, 0, 0, 0, dates.KST)
		start = end.AddDate(0, 0, -(s.LookbackDays - 1))
	}

	q := domain.SearchQuery{
		Keyword:   s.Keyword,
		StartDate: start,
		EndDate:   end,
		Sort:      sort,
		MaxPages:  s.MaxPages,
		DelayMin:  time.Duration(s.DelayMinMs) * time.Millisecond,
		DelayMax:  time.Duration(s.DelayMaxMs) * time.Millisecond,
	}
	if err := q.Validate(); err != nil {
		return domain.SearchQuery{}, fmt.Errorf("search %q: %w", s.ID, err)
	}
	return q, nil
}
