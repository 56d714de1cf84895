package publishers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id    string
	typ   string
	err   error
	calls int
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
	})

	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
}

func TestFanoutRoutesBySearch(t *testing.T) {
	daily := &stubPublisher{id: "daily", typ: "http"}
	every := &stubPublisher{id: "every", typ: "http"}
	fanout := NewFanout([]Publisher{
		routedPublisher{Publisher: daily, searches: []string{"daily"}},
		every,
	})

	if n := fanout.Routes("daily"); n != 2 {
		t.Fatalf("expected 2 routes for daily, got %d", n)
	}
	if n := fanout.Routes("weekly"); n != 1 {
		t.Fatalf("expected 1 route for weekly, got %d", n)
	}

	count, err := fanout.Publish(context.Background(), Event{SearchID: "weekly"})
	if err != nil || count != 1 {
		t.Fatalf("Publish weekly: count=%d err=%v", count, err)
	}
	if daily.calls != 0 || every.calls != 1 {
		t.Fatalf("unexpected calls daily=%d every=%d", daily.calls, every.calls)
	}
}

func TestBuildAllWrapsRoutedConfigs(t *testing.T) {
	pubs, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{
		{ID: "hook", Type: TypeHTTP, Searches: []string{"daily"}, HTTP: &HTTPPublisherConfig{URL: "https://hooks.example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	r, ok := pubs[0].(router)
	if !ok || !r.Routes("daily") || r.Routes("weekly") {
		t.Fatalf("expected routed publisher, got %T", pubs[0])
	}
	if pubs[0].ID() != "hook" || pubs[0].Type() != TypeHTTP {
		t.Fatalf("routed publisher lost identity: %s/%s", pubs[0].ID(), pubs[0].Type())
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(pubs))
	}
}

type closingPublisher struct {
	stubPublisher
	closed bool
}

func (c *closingPublisher) Close() error {
	c.closed = true
	return nil
}

func TestFanoutCloseReleasesClosers(t *testing.T) {
	c := &closingPublisher{stubPublisher: stubPublisher{id: "q", typ: TypeSQS}}
	fanout := NewFanout([]Publisher{c, &stubPublisher{id: "h", typ: TypeHTTP}, nil})
	if fanout.Size() != 2 {
		t.Fatalf("expected nil publishers to be dropped, got %d", fanout.Size())
	}
	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !c.closed {
		t.Fatalf("expected closer to be closed")
	}
}

func TestBuildAllRejectsUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{
		{ID: "x", Type: "kafka"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}

func TestBuildAllSQSWithStaticCredentials(t *testing.T) {
	pubs, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{
		{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{
			QueueURL: "https://sqs.ap-northeast-2.amazonaws.com/123/news",
			AWSAccess: AWSAccess{
				Region:          "ap-northeast-2",
				AccessKeyID:     "AKIDEXAMPLE",
				SecretAccessKey: "secret",
			},
		}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 || pubs[0].Type() != TypeSQS || pubs[0].ID() != "q" {
		t.Fatalf("unexpected publishers %#v", pubs)
	}
}
