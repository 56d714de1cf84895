package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-news-search/internal/domain"
)

// Event is the payload published downstream for each newly seen record.
type Event struct {
	RunID       string        `json:"run_id"`
	SearchID    string        `json:"search_id"`
	Keyword     string        `json:"keyword"`
	Record      domain.Record `json:"record"`
	CollectedAt time.Time     `json:"collected_at"`
}

// NewEvent constructs an Event for a record found by the given saved search.
func NewEvent(runID, searchID, keyword string, rec domain.Record) Event {
	return Event{
		RunID:       runID,
		SearchID:    searchID,
		Keyword:     keyword,
		Record:      rec,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are the routing fields copied onto queue message metadata.
func (e Event) attributes() map[string]string {
	out := map[string]string{}
	if e.SearchID != "" {
		out["search_id"] = e.SearchID
	}
	if e.RunID != "" {
		out["run_id"] = e.RunID
	}
	return out
}
