package fetcher

import (
	"strings"
	"testing"

	"github.com/kestrelresearch/scout/internal/collect"
)

func TestIsResourceListPage_TitleCueWithManyDomains(t *testing.T) {
	var urls []string
	for i := 0; i < ListTitleMinURLs; i++ {
		urls = append(urls, "https://domain"+string(rune('a'+i))+".com/post")
	}
	item := collect.FetchedItem{
		Title:   "Top 10 Resources for Go Developers",
		Content: strings.Join(urls, " "),
	}
	if !IsResourceListPage(item) {
		t.Error("expected a title-cued page with many distinct domains to be a resource list")
	}
}

func TestIsResourceListPage_HighLinkDensity(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < DensityMinURLs; i++ {
		sb.WriteString("https://example.com/article" + string(rune('a'+i)) + " ")
	}
	// A handful of words keeps density (links per 100 words) above threshold.
	sb.WriteString("short page")
	item := collect.FetchedItem{Title: "Untitled", Content: sb.String()}

	if !IsResourceListPage(item) {
		t.Error("expected a link-dense page to be a resource list")
	}
}

func TestIsResourceListPage_BareURLCountAlone(t *testing.T) {
	var urls []string
	for i := 0; i < BareURLCountMinURLs; i++ {
		urls = append(urls, "https://site"+string(rune('a'+i))+".com/page")
	}
	item := collect.FetchedItem{
		Title:   "Just a page",
		Content: strings.Repeat("filler word ", 200) + strings.Join(urls, " "),
	}
	if !IsResourceListPage(item) {
		t.Error("expected a page with enough distinct domains to be a resource list regardless of density or title")
	}
}

func TestIsResourceListPage_OrdinaryArticleIsNotAList(t *testing.T) {
	item := collect.FetchedItem{
		Title:   "Our quarterly earnings report",
		Content: strings.Repeat("the company grew its revenue substantially this quarter ", 20),
	}
	if IsResourceListPage(item) {
		t.Error("expected an ordinary article with no links to not be a resource list")
	}
}

func TestExtractURLs(t *testing.T) {
	content := `See https://example.com/a and also https://example.org/b" or "https://example.net/c`
	urls := ExtractURLs(content)
	if len(urls) != 3 {
		t.Fatalf("expected 3 extracted URLs, got %d: %v", len(urls), urls)
	}
}

func TestPartitionListURLs(t *testing.T) {
	urls := []string{
		"https://example.com/feed.xml",
		"https://example.com/rss",
		"https://example.com/article",
	}
	feeds, regular := PartitionListURLs(urls)
	if len(feeds) != 2 {
		t.Errorf("expected 2 feed-like URLs, got %d: %v", len(feeds), feeds)
	}
	if len(regular) != 1 {
		t.Errorf("expected 1 regular URL, got %d: %v", len(regular), regular)
	}
}
