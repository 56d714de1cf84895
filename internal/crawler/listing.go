package crawler

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/samvad-hq/samvad-news-search/internal/domain"
)

const (
	// DefaultEndpoint is the news search page.
	DefaultEndpoint = "https://search.naver.com/search.naver"

	firstOffset = 1
	// pageSize is the fixed number of results per listing page.
	pageSize = 10
)

// DefaultHeaders mimics a desktop browser arriving from the portal home page.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) " +
			"Chrome/124.0.0.0 Safari/537.36",
		"Accept-Language": "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
		"Referer":         "https://www.naver.com/",
	}
}

// BuildListingURL renders the listing request for q at the given offset.
func BuildListingURL(endpoint string, q domain.SearchQuery, offset int) string {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	start := q.StartDate.Format(domain.DateLayout)
	end := q.EndDate.Format(domain.DateLayout)
	period := "from" + strings.ReplaceAll(start, ".", "") + "to" + strings.ReplaceAll(end, ".", "")

	v := url.Values{}
	v.Set("where", "news")
	v.Set("sm", "tab_pge")
	v.Set("sort", strconv.Itoa(int(q.Sort)))
	v.Set("photo", "0")
	v.Set("field", "0")
	v.Set("query", q.Keyword)
	v.Set("pd", "3")
	v.Set("ds", start)
	v.Set("de", end)
	v.Set("nso", "so:r,p:"+period)
	v.Set("start", strconv.Itoa(offset))

	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + v.Encode()
}
