// Package dates converts the date encodings found on listing pages, article
// URLs and origin documents into the canonical YYYY.MM.DD form.
//
// All arithmetic is done in the fixed KST reference zone so results do not
// depend on the host's local timezone.
package dates

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/samvad-hq/samvad-news-search/internal/domain"
)

// KST is the reference zone (UTC+9) of the search site.
var KST = time.FixedZone("KST", 9*60*60)

const (
	yesterdayToken = "어제"
	todayToken     = "오늘"
)

var (
	absolutePattern = regexp.MustCompile(`(20\d{2})\.(\d{1,2})\.(\d{1,2})`)
	relativePattern = regexp.MustCompile(`(\d+)\s*(분|시간|일)\s*전`)
	isoDatePrefix   = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}`)
)

// Format renders t as a calendar date in the reference zone.
func Format(t time.Time) string {
	return t.In(KST).Format(domain.DateLayout)
}

// NormalizeRelative converts "<N>분 전", "<N>시간 전", "<N>일 전", "어제" and
// "오늘" into a date relative to now. Unrecognized text yields "".
func NormalizeRelative(text string, now time.Time) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}
	now = now.In(KST)

	if m := relativePattern.FindStringSubmatch(t); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return ""
		}
		var unit time.Duration
		switch m[2] {
		case "분":
			unit = time.Minute
		case "시간":
			unit = time.Hour
		default:
			return Format(now.AddDate(0, 0, -n))
		}
		if int64(n) > math.MaxInt64/int64(unit) {
			return ""
		}
		return Format(now.Add(-time.Duration(n) * unit))
	}
	if strings.Contains(t, yesterdayToken) {
		return Format(now.AddDate(0, 0, -1))
	}
	if strings.Contains(t, todayToken) {
		return Format(now)
	}
	return ""
}

// AbsoluteDate finds a 20YY.M.D substring and returns it zero-padded.
func AbsoluteDate(text string) string {
	m := absolutePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return joinDate(m[1], m[2], m[3])
}

// FromText tries an absolute date first and a relative phrase second.
func FromText(text string, now time.Time) string {
	if d := AbsoluteDate(text); d != "" {
		return d
	}
	return NormalizeRelative(text, now)
}

// ParseISO parses an ISO-8601 timestamp and renders it in the reference zone.
// Values without an offset are read as reference-zone wall time. Anything
// that does not start with a full YYYY-MM-DD date yields "".
func ParseISO(value string) string {
	value = strings.TrimSpace(value)
	if !isoDatePrefix.MatchString(value) {
		return ""
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		t, err = dateparse.ParseIn(value, KST)
	}
	if err != nil || t.Year() == 0 {
		return ""
	}
	return Format(t)
}

func joinDate(year, month, day string) string {
	y, err := strconv.Atoi(year)
	if err != nil {
		return ""
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return ""
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%04d.%02d.%02d", y, m, d)
}
