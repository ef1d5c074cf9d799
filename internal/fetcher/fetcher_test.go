package fetcher

import (
	"testing"

	"github.com/kestrelresearch/scout/internal/collect"
)

func TestMatchesKeywords(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		content  string
		keywords []string
		want     bool
	}{
		{"no keywords always matches", "anything", "anything", nil, true},
		{"matches in title", "Breaking news on Widgets Inc", "nothing relevant", []string{"widgets"}, true},
		{"matches in content", "Plain headline", "a deep dive into gizmos", []string{"gizmos"}, true},
		{"case insensitive", "WIDGETS lead the market", "", []string{"widgets"}, true},
		{"no match", "unrelated headline", "unrelated body", []string{"widgets", "gizmos"}, false},
		{"blank keyword ignored", "headline", "body", []string{""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesKeywords(tt.title, tt.content, tt.keywords); got != tt.want {
				t.Errorf("matchesKeywords(%q, %q, %v) = %v, want %v", tt.title, tt.content, tt.keywords, got, tt.want)
			}
		})
	}
}

func TestHealthKey(t *testing.T) {
	tests := []struct {
		name  string
		kind  collect.SourceKind
		entry Entry
		want  string
	}{
		{"filing uses ticker", collect.KindFiling, Entry{Filing: FilingEntry{Ticker: "ACME"}}, "filing:ACME"},
		{"keyword kind uses query", collect.KindVideoKeyword, Entry{Query: "rust programming"}, "video_keyword:rust programming"},
		{"paper query uses query", collect.KindPaperQuery, Entry{Query: "quantum computing"}, "paper_query:quantum computing"},
		{"feed uses URL", collect.KindFeed, Entry{URL: "https://example.com/feed"}, "feed:https://example.com/feed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := healthKey(tt.kind, tt.entry); got != tt.want {
				t.Errorf("healthKey(%v, %+v) = %q, want %q", tt.kind, tt.entry, got, tt.want)
			}
		})
	}
}

func TestKeywordFilterExemptKinds(t *testing.T) {
	if !keywordFilterExempt[collect.KindPaperQuery] {
		t.Error("expected paper_query to be exempt from keyword filtering")
	}
	if !keywordFilterExempt[collect.KindFiling] {
		t.Error("expected filing to be exempt from keyword filtering")
	}
	if keywordFilterExempt[collect.KindFeed] {
		t.Error("expected feed to not be exempt from keyword filtering")
	}
}
