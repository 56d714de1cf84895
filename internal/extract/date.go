package extract

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/samvad-news-search/internal/dates"
)

const (
	infoGroupDateSelector = "div.info_group > span.info"
	sdsDateSelector       = "span.sds-comps-text.sds-comps-text-type-body2.sds-comps-text-weight-sm"
)

type dateStrategy func(ctx context.Context, box *goquery.Selection, link string) string

func (e *Extractor) dateStrategies() []dateStrategy {
	strategies := []dateStrategy{
		e.textDate(infoGroupDateSelector),
		e.textDate(sdsDateSelector),
		e.timeElementDate,
		urlDate,
	}
	if e.origin != nil {
		strategies = append(strategies, e.originDate)
	}
	return strategies
}

func (e *Extractor) resolveDate(ctx context.Context, box *goquery.Selection, link string) string {
	for _, strategy := range e.dateStrategies() {
		if d := strategy(ctx, box, link); d != "" {
			return d
		}
	}
	return ""
}

// textDate scans every element matched by selector for an absolute or
// relative date.
func (e *Extractor) textDate(selector string) dateStrategy {
	return func(_ context.Context, box *goquery.Selection, _ string) string {
		var found string
		box.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = dates.FromText(cleanText(s.Text()), e.now())
			return found == ""
		})
		return found
	}
}

func (e *Extractor) timeElementDate(_ context.Context, box *goquery.Selection, _ string) string {
	t := box.Find("time").First()
	if t.Length() == 0 {
		return ""
	}
	if v, ok := t.Attr("datetime"); ok {
		if d := dates.ParseISO(v); d != "" {
			return d
		}
	}
	return dates.FromText(cleanText(t.Text()), e.now())
}

func urlDate(_ context.Context, _ *goquery.Selection, link string) string {
	return dates.ExtractFromURL(link)
}

func (e *Extractor) originDate(ctx context.Context, _ *goquery.Selection, link string) string {
	if link == "" {
		return ""
	}
	return e.origin.FetchDate(ctx, link)
}
