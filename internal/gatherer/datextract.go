package gatherer

import (
	"regexp"
	"strings"
	"time"
)

// datePrefixLen bounds how much of an item's content is scanned for an
// embedded publication date — enough to catch a dateline or byline without
// running a regex pass over the full document.
const datePrefixLen = 500

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	longDatePattern  = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),?\s+(\d{4})\b`)
)

// extractPublicationDate looks for a date embedded in an item's title and
// content prefix, trying an ISO date, a long-form "Month D, YYYY" date, then
// a slash-separated date. Returns false if nothing parseable was found or
// the first candidate found in that order is implausible (more than a day
// in the future, or more than 20 years in the past).
func extractPublicationDate(title, content string) (time.Time, bool) {
	if len(content) > datePrefixLen {
		content = content[:datePrefixLen]
	}
	text := title + " " + content

	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3]); err == nil {
			return plausibleOrZero(t)
		}
	}
	if m := longDatePattern.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("January 2 2006", strings.Join([]string{m[1], m[2], m[3]}, " ")); err == nil {
			return plausibleOrZero(t)
		}
	}
	if m := slashDatePattern.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("1/2/2006", m[1]+"/"+m[2]+"/"+m[3]); err == nil {
			return plausibleOrZero(t)
		}
	}
	return time.Time{}, false
}

func plausibleOrZero(t time.Time) (time.Time, bool) {
	now := time.Now()
	if t.After(now.Add(24 * time.Hour)) {
		return time.Time{}, false
	}
	if t.Before(now.AddDate(-20, 0, 0)) {
		return time.Time{}, false
	}
	return t, true
}
