package crawler

import "github.com/samvad-hq/samvad-news-search/internal/domain"

// Accumulator is an append-only, ordered collection of accepted records.
type Accumulator struct {
	records []domain.Record
}

// Add appends rec.
func (a *Accumulator) Add(rec domain.Record) {
	a.records = append(a.records, rec)
}

// Len returns the number of accepted records.
func (a *Accumulator) Len() int { return len(a.records) }

// Records returns a copy of the accepted records in admission order.
func (a *Accumulator) Records() []domain.Record {
	out := make([]domain.Record, len(a.records))
	copy(out, a.records)
	return out
}

// crawlState is the mutable state of a single crawl invocation.
type crawlState struct {
	offset    int
	pageCount int
	seenLinks map[string]struct{}
}

func newCrawlState() *crawlState {
	return &crawlState{
		offset:    firstOffset,
		seenLinks: make(map[string]struct{}),
	}
}

// admit records link as seen and reports whether it was new.
func (s *crawlState) admit(link string) bool {
	if link == "" {
		return false
	}
	if _, ok := s.seenLinks[link]; ok {
		return false
	}
	s.seenLinks[link] = struct{}{}
	return true
}
