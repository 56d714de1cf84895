package dates

import (
	"regexp"
	"strconv"
)

var (
	compactSegmentPattern = regexp.MustCompile(`/(20\d{2})(\d{2})(\d{2})/`)
	slashedPathPattern    = regexp.MustCompile(`/(20\d{2})/(\d{1,2})/(\d{1,2})/`)
	bareDigitsPattern     = regexp.MustCompile(`(?:^|\D)(20\d{2})(\d{2})(\d{2})`)
)

// ExtractFromURL looks for a date embedded in an article URL, trying
// /YYYYMMDD/, then /YYYY/M/D/, then a bare YYYYMMDD run. Implausible months
// or days are ignored. It never panics on malformed input.
func ExtractFromURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	for _, p := range []*regexp.Regexp{compactSegmentPattern, slashedPathPattern, bareDigitsPattern} {
		for _, m := range p.FindAllStringSubmatch(rawURL, -1) {
			if plausible(m[2], m[3]) {
				return joinDate(m[1], m[2], m[3])
			}
		}
	}
	return ""
}

func plausible(month, day string) bool {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return false
	}
	d, err := strconv.Atoi(day)
	return err == nil && d >= 1 && d <= 31
}
