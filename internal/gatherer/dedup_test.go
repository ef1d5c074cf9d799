package gatherer

import (
	"testing"

	"github.com/kestrelresearch/scout/internal/collect"
)

func TestIsURLDuplicate(t *testing.T) {
	g := &Gatherer{seenURLs: map[string]bool{"https://example.com/a": true}}

	if !g.isURLDuplicate(collect.FetchedItem{URL: "https://example.com/a"}) {
		t.Error("expected a seen URL to be reported as a duplicate")
	}
	if g.isURLDuplicate(collect.FetchedItem{URL: "https://example.com/b"}) {
		t.Error("expected an unseen URL to not be a duplicate")
	}
	if g.isURLDuplicate(collect.FetchedItem{}) {
		t.Error("expected an empty URL to never count as a duplicate")
	}
}

func TestIsHashDuplicate(t *testing.T) {
	g := &Gatherer{seenHashes: map[string]bool{"abc123": true}}

	if !g.isHashDuplicate(collect.FetchedItem{ContentHash: "abc123"}) {
		t.Error("expected a seen hash to be reported as a duplicate")
	}
	if g.isHashDuplicate(collect.FetchedItem{ContentHash: "xyz789"}) {
		t.Error("expected an unseen hash to not be a duplicate")
	}
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "the quick brown fox", "the quick brown fox", 1.0},
		{"disjoint", "alpha beta", "gamma delta", 0.0},
		{"empty a", "", "something", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenOverlap(tt.a, tt.b); got != tt.want {
				t.Errorf("tokenOverlap(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarToAny(t *testing.T) {
	samples := []string{"the quick brown fox jumps"}
	if !similarToAny("the quick brown fox jumps over", samples) {
		t.Error("expected near-identical text to be flagged as similar")
	}
	if similarToAny("completely unrelated content here", samples) {
		t.Error("expected unrelated text to not be flagged as similar")
	}
}

func TestMatchesAny(t *testing.T) {
	terms := []string{"politics", "celebrity gossip"}
	if !matchesAny("Breaking: Celebrity Gossip dominates headlines", terms) {
		t.Error("expected case-insensitive substring match to find an excluded topic")
	}
	if matchesAny("a calm discussion of mathematics", terms) {
		t.Error("expected unrelated text to not match any excluded topic")
	}
	if matchesAny("anything", nil) {
		t.Error("expected an empty term list to never match")
	}
}
