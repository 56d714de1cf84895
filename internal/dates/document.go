package dates

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

var documentDatePattern = regexp.MustCompile(`(\d{4})[.\-/](\d{1,2})[.\-/](\d{1,2})`)

// ExtractFromDocument inspects an origin article page for its publish date:
// the first <time datetime>, then article:published_time, then any bare
// YYYY.MM.DD / YYYY-MM-DD / YYYY/MM/DD substring.
func ExtractFromDocument(html string) string {
	return ExtractFromDocumentURL(html, nil)
}

// ExtractFromDocumentURL is ExtractFromDocument with an extra readability
// pass (JSON-LD and other published-time metadata) ahead of the bare
// substring scan. The pass is skipped when pageURL is nil.
func ExtractFromDocumentURL(html string, pageURL *url.URL) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			if d := ParseISO(v); d != "" {
				return d
			}
		}
		if v, ok := doc.Find(`meta[property="article:published_time"]`).First().Attr("content"); ok {
			if d := ParseISO(v); d != "" {
				return d
			}
		}
	}

	if pageURL != nil {
		if d := readabilityDate(html, pageURL); d != "" {
			return d
		}
	}

	if m := documentDatePattern.FindStringSubmatch(html); m != nil {
		return joinDate(m[1], m[2], m[3])
	}
	return ""
}

func readabilityDate(html string, pageURL *url.URL) string {
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil || article.PublishedTime == nil {
		return ""
	}
	return Format(*article.PublishedTime)
}
