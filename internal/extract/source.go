package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	profilePressSelector = "div.sds-comps-profile-info-title " +
		"span.sds-comps-text.sds-comps-text-type-body2.sds-comps-profile-info-title-text, " +
		"div.sds-comps-profile-info-title a > span.sds-comps-text.sds-comps-text-type-body2"
	legacyPressSelector      = "a.info.press"
	legacyInfoGroupSelector  = "div.info_group > a.info"
	maxClassMatchSourceRunes = 30
)

var sourceClassPattern = regexp.MustCompile(`(?i)(press|source|profile-info-title)`)

type sourceStrategy func(box *goquery.Selection, link string) string

var sourceStrategies = []sourceStrategy{
	selectorSource(profilePressSelector),
	selectorSource(legacyPressSelector),
	selectorSource(legacyInfoGroupSelector),
	classMatchedSource,
	domainSource,
}

func resolveSource(box *goquery.Selection, link string) string {
	for _, strategy := range sourceStrategies {
		if src := strategy(box, link); src != "" {
			return src
		}
	}
	return ""
}

func selectorSource(selector string) sourceStrategy {
	return func(box *goquery.Selection, _ string) string {
		return cleanText(box.Find(selector).First().Text())
	}
}

func classMatchedSource(box *goquery.Selection, _ string) string {
	var src string
	box.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if !sourceClassPattern.MatchString(class) {
			return true
		}
		txt := cleanText(s.Text())
		if txt != "" && utf8.RuneCountInString(txt) <= maxClassMatchSourceRunes {
			src = txt
			return false
		}
		return true
	})
	return src
}

// domainSource reduces the link host to its first label, without "www.".
func domainSource(_ *goquery.Selection, link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" {
		return ""
	}
	label, _, _ := strings.Cut(host, ".")
	return label
}
