package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samvad-hq/samvad-news-search/internal/domain"
)

func TestHTTPPublisherPostsRecordEvent(t *testing.T) {
	var (
		method string
		header string
		got    Event
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		header = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{
			URL:     srv.URL,
			Headers: map[string]string{"Authorization": "Bearer t"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}
	hp := pub.(*httpPublisher)
	if hp.method != httpDefaultMethod {
		t.Fatalf("method = %q, want default %q", hp.method, httpDefaultMethod)
	}
	if hp.client.GetClient().Timeout.Seconds() != httpDefaultTimeoutSeconds {
		t.Fatalf("timeout = %v, want %ds", hp.client.GetClient().Timeout, httpDefaultTimeoutSeconds)
	}

	rec := domain.Record{
		Title:  "여의시스템 신제품 출시",
		Date:   "2024.03.07",
		Source: "연합뉴스",
		Link:   "https://www.yna.co.kr/view/AKR20240307000100003",
	}
	if err := pub.Publish(context.Background(), NewEvent("run-1", "daily", `"여의시스템"`, rec)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if method != http.MethodPost || header != "Bearer t" {
		t.Fatalf("unexpected request method=%s auth=%q", method, header)
	}
	if got.Record != rec || got.SearchID != "daily" || got.RunID != "run-1" || got.Keyword != `"여의시스템"` {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestHTTPPublisherHonoursConfiguredMethod(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: srv.URL, Method: http.MethodPut, TimeoutSeconds: 1},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}
	if err := pub.Publish(context.Background(), Event{SearchID: "daily"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if method != http.MethodPut {
		t.Fatalf("method = %s, want PUT", method)
	}
}

func TestHTTPPublisherReportsStatusAndSnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, strings.Repeat("x", 1000), http.StatusBadGateway)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: srv.URL, TimeoutSeconds: 1},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}

	err = pub.Publish(context.Background(), Event{})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected 502 error, got %v", err)
	}
	if strings.Count(err.Error(), "x") > maxBodySnippet {
		t.Fatalf("error body not truncated: %d bytes", len(err.Error()))
	}
}

func TestNewHTTPPublisherRequiresConfig(t *testing.T) {
	if _, err := newHTTPPublisher(context.Background(), PublisherConfig{ID: "hook", Type: TypeHTTP}, nil); err == nil {
		t.Fatalf("expected error without http block")
	}
}
