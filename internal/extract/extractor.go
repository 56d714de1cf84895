// Package extract turns a rendered news-search listing page into records.
//
// Each record field is resolved through an ordered list of strategies; the
// first strategy that yields a value wins. Listing markup has changed across
// site redesigns, so every list starts with the current layout and falls
// back to older ones.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/samvad-news-search/internal/domain"
)

const (
	primaryContainerSelector   = "ul.list_news > li.bx"
	secondaryContainerSelector = "div.news_area, div.sds-comps-base-layout, div.sds-comps-vertical-layout"
)

// DateFetcher resolves a publish date by inspecting the origin article.
type DateFetcher interface {
	FetchDate(ctx context.Context, link string) string
}

// Page is the outcome of extracting one listing page.
type Page struct {
	Containers int
	Records    []domain.Record
}

// Extractor parses listing pages. It holds only configuration, so one value
// can be shared by any number of crawls.
type Extractor struct {
	keyword string
	now     func() time.Time
	origin  DateFetcher
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the clock used for relative dates.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithDateFetcher enables the origin-document date fallback.
func WithDateFetcher(f DateFetcher) Option {
	return func(e *Extractor) { e.origin = f }
}

// New builds an extractor. keyword feeds the last-resort title strategy.
func New(keyword string, opts ...Option) *Extractor {
	e := &Extractor{
		keyword: normalizeKeyword(keyword),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractHTML parses body and extracts its records. pageURL, when set, is used
// to resolve relative links.
func (e *Extractor) ExtractHTML(ctx context.Context, body []byte, pageURL string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			doc.Url = u
		}
	}
	return e.ExtractRecords(ctx, doc), nil
}

// ExtractRecords walks the result containers of doc. Containers without a
// title or a link are dropped.
func (e *Extractor) ExtractRecords(ctx context.Context, doc *goquery.Document) Page {
	if doc == nil {
		return Page{}
	}
	boxes := doc.Find(primaryContainerSelector)
	if boxes.Length() == 0 {
		boxes = doc.Find(secondaryContainerSelector)
	}

	page := Page{Containers: boxes.Length()}
	boxes.Each(func(_ int, box *goquery.Selection) {
		if rec, ok := e.extractRecord(ctx, box, doc.Url); ok {
			page.Records = append(page.Records, rec)
		}
	})
	return page
}

func (e *Extractor) extractRecord(ctx context.Context, box *goquery.Selection, base *url.URL) (domain.Record, bool) {
	title, anchor := e.resolveTitle(box)
	if title == "" {
		return domain.Record{}, false
	}

	link := resolveLink(box, anchor, base)
	if link == "" {
		return domain.Record{}, false
	}

	return domain.Record{
		Title:  title,
		Date:   e.resolveDate(ctx, box, link),
		Source: resolveSource(box, link),
		Link:   link,
	}, true
}

func normalizeKeyword(raw string) string {
	raw = strings.NewReplacer(`"`, "", "“", "", "”", "").Replace(raw)
	return cleanText(raw)
}

// cleanText collapses all whitespace runs to single spaces and trims.
// Inline fragments such as <mark> are joined as they appear in the markup.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolveURL resolves ref against base, dropping in-page and script links.
func resolveURL(ref string, base *url.URL) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(strings.ToLower(ref), "javascript:") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if u.IsAbs() || base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
