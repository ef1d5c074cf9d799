package fetcher

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/kestrelresearch/scout/internal/collect"
)

// Named thresholds for the resource-list-page heuristic, kept as constants
// rather than inlined magic numbers since they're load-bearing design
// parameters.
const (
	ListTitleMinURLs    = 5
	DensityMinURLs      = 8
	DensityThreshold    = 1.5 // URLs per 100 words
	BareURLCountMinURLs = 10
)

var listTitleCues = []string{"top", "best", "awesome", "resources"}

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// feedPathHints are path/filename cues that mark a URL as feed-like rather
// than a regular page, used to partition a list page's extracted URLs.
var feedPathHints = []string{"/rss", "/feed", ".xml", "/atom"}

// ExtractURLs returns every absolute URL found in content.
func ExtractURLs(content string) []string {
	return urlPattern.FindAllString(content, -1)
}

func uniqueDomainCount(urls []string) int {
	domains := make(map[string]bool)
	for _, u := range urls {
		if parsed, err := url.Parse(u); err == nil {
			domains[parsed.Hostname()] = true
		}
	}
	return len(domains)
}

func hasListTitleCue(title string) bool {
	lower := strings.ToLower(title)
	for _, cue := range listTitleCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

func wordCount(content string) int {
	return len(strings.Fields(content))
}

// IsResourceListPage reports whether an item looks like a curated list
// page that should be expanded into its constituent links rather than kept
// as a single source, per the three-way heuristic in the fetch pipeline.
func IsResourceListPage(item collect.FetchedItem) bool {
	urls := ExtractURLs(item.Content)
	domains := uniqueDomainCount(urls)

	if domains >= ListTitleMinURLs && hasListTitleCue(item.Title) {
		return true
	}

	words := wordCount(item.Content)
	if len(urls) >= DensityMinURLs && words > 0 {
		density := float64(len(urls)) / float64(words) * 100
		if density > DensityThreshold {
			return true
		}
	}

	if domains >= BareURLCountMinURLs {
		return true
	}

	return false
}

// PartitionListURLs splits a list page's extracted URLs into feed-like and
// regular links, based on path/filename hints.
func PartitionListURLs(urls []string) (feeds []string, regular []string) {
	for _, u := range urls {
		lower := strings.ToLower(u)
		isFeed := false
		for _, hint := range feedPathHints {
			if strings.Contains(lower, hint) {
				isFeed = true
				break
			}
		}
		if isFeed {
			feeds = append(feeds, u)
		} else {
			regular = append(regular, u)
		}
	}
	return feeds, regular
}

// ExpansionFeedCap and ExpansionRegularCap bound how many of a list page's
// links are actually fetched: the top 8 feeds (2 articles each) and the
// top 8 regular pages.
const (
	ExpansionFeedCap       = 8
	ExpansionArticlesPerFeed = 2
	ExpansionRegularCap    = 8
)
