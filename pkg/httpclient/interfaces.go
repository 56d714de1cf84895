package httpclient

import "context"

// Response exposes the parts of an HTTP response the crawler reads.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client issues GET requests. The listing crawler and the origin date
// fetcher depend on this so tests can substitute scripted responses.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
