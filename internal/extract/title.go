package extract

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	headlineSelector = "span.sds-comps-text.sds-comps-text-ellipsis-1.sds-comps-text-type-headline1, " +
		"span.sds-comps-text.sds-comps-text-ellipsis-2.sds-comps-text-type-headline1, " +
		"span.sds-comps-text.sds-comps-text-type-headline1, " +
		"span.sds-comps-text.sds-comps-text-type-headline2"
	titleLinkSelector = `a[class*="news_tit"]`

	minKeywordTitleRunes = 10
)

// titleStrategy returns the title text found in a container and the anchor
// that carries it, if any.
type titleStrategy func(box *goquery.Selection) (string, *goquery.Selection)

func (e *Extractor) titleStrategies() []titleStrategy {
	return []titleStrategy{
		headlineTitle,
		headlineAnchorTitle,
		classTitle,
		e.keywordTitle,
	}
}

func (e *Extractor) resolveTitle(box *goquery.Selection) (string, *goquery.Selection) {
	for _, strategy := range e.titleStrategies() {
		if title, anchor := strategy(box); title != "" {
			return title, anchor
		}
	}
	return "", nil
}

func headlineTitle(box *goquery.Selection) (string, *goquery.Selection) {
	span := box.Find(headlineSelector).First()
	if span.Length() == 0 {
		return "", nil
	}
	var anchor *goquery.Selection
	if a := span.ParentsUntilSelection(box).Filter("a").First(); a.Length() > 0 {
		anchor = a
	}
	return cleanText(span.Text()), anchor
}

func headlineAnchorTitle(box *goquery.Selection) (string, *goquery.Selection) {
	a := headlineAnchor(box)
	if a == nil {
		return "", nil
	}
	return cleanText(a.Find(headlineSelector).First().Text()), a
}

func classTitle(box *goquery.Selection) (string, *goquery.Selection) {
	a := box.Find(titleLinkSelector).First()
	if a.Length() == 0 {
		return "", nil
	}
	return cleanText(a.Text()), a
}

func (e *Extractor) keywordTitle(box *goquery.Selection) (string, *goquery.Selection) {
	if e.keyword == "" {
		return "", nil
	}
	var (
		title  string
		anchor *goquery.Selection
	)
	box.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		txt := cleanText(a.Text())
		if strings.Contains(txt, e.keyword) && utf8.RuneCountInString(txt) > minKeywordTitleRunes {
			title, anchor = txt, a
			return false
		}
		return true
	})
	return title, anchor
}

// headlineAnchor finds the first anchor with a headline span as a direct child.
func headlineAnchor(box *goquery.Selection) *goquery.Selection {
	a := box.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ChildrenFiltered(headlineSelector).Length() > 0
	}).First()
	if a.Length() == 0 {
		return nil
	}
	return a
}

// resolveLink prefers the anchor tied to the title, then the usual title
// anchors, then the first anchor of the container.
func resolveLink(box, titleAnchor *goquery.Selection, base *url.URL) string {
	candidates := []func() *goquery.Selection{
		func() *goquery.Selection { return titleAnchor },
		func() *goquery.Selection { return headlineAnchor(box) },
		func() *goquery.Selection { return box.Find(titleLinkSelector).First() },
		func() *goquery.Selection { return box.Find("a").First() },
	}
	for _, next := range candidates {
		a := next()
		if a == nil || a.Length() == 0 {
			continue
		}
		href, _ := a.Attr("href")
		if link := resolveURL(href, base); link != "" {
			return link
		}
	}
	return ""
}
