package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
)

// router is implemented by publishers restricted to some saved searches.
type router interface {
	Routes(searchID string) bool
}

// routedPublisher limits a publisher to events of the listed searches.
type routedPublisher struct {
	Publisher
	searches []string
}

func (r routedPublisher) Routes(searchID string) bool {
	return slices.Contains(r.searches, searchID)
}

func (r routedPublisher) Close() error {
	if c, ok := r.Publisher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func accepts(p Publisher, searchID string) bool {
	r, ok := p.(router)
	return !ok || r.Routes(searchID)
}

// Fanout dispatches events to the publishers routed for their saved search.
type Fanout struct {
	publishers []Publisher
}

// NewFanout builds a dispatcher that fans out events across publishers.
func NewFanout(pubs []Publisher) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p == nil {
			continue
		}
		cp = append(cp, p)
	}
	return &Fanout{publishers: cp}
}

// Publish forwards the event to every publisher routed for evt.SearchID.
// It returns the number of publishers that successfully handled the event.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	var errs []error
	successful := 0
	for _, p := range f.publishers {
		if !accepts(p, evt.SearchID) {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
		} else {
			successful++
		}
	}
	return successful, errors.Join(errs...)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Routes returns how many publishers receive events of searchID.
func (f *Fanout) Routes(searchID string) int {
	if f == nil {
		return 0
	}
	n := 0
	for _, p := range f.publishers {
		if accepts(p, searchID) {
			n++
		}
	}
	return n
}

// Close releases publishers that hold connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.publishers {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
