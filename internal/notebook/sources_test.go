package notebook

import (
	"testing"

	"github.com/kestrelresearch/scout/internal/fetcher"
)

func TestEntryIdentity(t *testing.T) {
	tests := []struct {
		name string
		e    fetcher.Entry
		want string
	}{
		{"query kind", fetcher.Entry{Query: "rust podcasts"}, "rust podcasts"},
		{"filing kind", fetcher.Entry{Filing: fetcher.FilingEntry{Ticker: "ACME"}}, "ACME"},
		{"url kind", fetcher.Entry{URL: "https://example.com/feed"}, "https://example.com/feed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entryIdentity(tt.e); got != tt.want {
				t.Errorf("entryIdentity(%+v) = %q, want %q", tt.e, got, tt.want)
			}
		})
	}
}

func TestToSourcesConfig_DropsDisabledSources(t *testing.T) {
	p := Profile{
		Sources: []SourceEntry{
			{Kind: "feed", Value: map[string]any{"urls": []any{"https://a.com/feed", "https://b.com/feed"}}},
		},
		DisabledSources: []string{"https://a.com/feed"},
	}

	cfg := p.ToSourcesConfig()

	entries := cfg["feed"]
	if len(entries) != 1 {
		t.Fatalf("expected exactly one surviving feed entry, got %d: %v", len(entries), entries)
	}
	if entries[0].URL != "https://b.com/feed" {
		t.Errorf("expected the non-disabled URL to survive, got %q", entries[0].URL)
	}
}

func TestToSourcesConfig_KeepsEverythingWhenNothingDisabled(t *testing.T) {
	p := Profile{
		Sources: []SourceEntry{
			{Kind: "video_keyword", Value: map[string]any{"queries": []any{"rust talks"}}},
		},
	}

	cfg := p.ToSourcesConfig()

	if len(cfg["video_keyword"]) != 1 {
		t.Fatalf("expected the single query entry to survive, got %v", cfg["video_keyword"])
	}
}

func TestToSourcesConfig_DisabledFilingByTicker(t *testing.T) {
	p := Profile{
		Sources: []SourceEntry{
			{Kind: "filing", Value: map[string]any{"tickers": []any{"ACME", "WIDGE"}}},
		},
		DisabledSources: []string{"ACME"},
	}

	cfg := p.ToSourcesConfig()

	entries := cfg["filing"]
	if len(entries) != 1 || entries[0].Filing.Ticker != "WIDGE" {
		t.Errorf("expected only the non-disabled ticker to survive, got %v", entries)
	}
}
