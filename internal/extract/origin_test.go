package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-news-search/pkg/httpclient"
	"github.com/stretchr/testify/assert"
)

func TestOriginFetcherReadsPublishedTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`<html><head><meta property="article:published_time" content="2024-03-06T22:00:00+00:00"></head></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetcher := NewOriginFetcher(httpclient.NewRestyClient(2*time.Second),
		map[string]string{"User-Agent": "test-agent"},
		OriginOptions{RequestsPerSecond: 50}, nil)

	assert.Equal(t, "2024.03.07", fetcher.FetchDate(context.Background(), srv.URL+"/ok"))
	assert.Equal(t, "", fetcher.FetchDate(context.Background(), srv.URL+"/missing"))
	assert.EqualValues(t, 2, fetcher.Calls())
	assert.EqualValues(t, 1, fetcher.Hits())
}

func TestOriginFetcherDegradesOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	fetcher := NewOriginFetcher(httpclient.NewRestyClient(500*time.Millisecond), nil, OriginOptions{}, nil)
	assert.Equal(t, "", fetcher.FetchDate(context.Background(), addr+"/x"))
	assert.Equal(t, "", fetcher.FetchDate(context.Background(), "relative/path"))
	assert.EqualValues(t, 1, fetcher.Calls())
}

func TestOriginFetcherIgnoresCallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<time datetime="2024-03-07">x</time>`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewOriginFetcher(httpclient.NewRestyClient(2*time.Second), nil, OriginOptions{}, nil)
	assert.Equal(t, "2024.03.07", fetcher.FetchDate(ctx, srv.URL))
}
