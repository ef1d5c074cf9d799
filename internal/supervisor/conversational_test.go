package supervisor

import (
	"context"
	"testing"

	"github.com/kestrelresearch/scout/internal/discovery"
)

func TestConversationalReply_FallsBackWithoutChat(t *testing.T) {
	s := New(Deps{})
	got := s.ConversationalReply(context.Background(), "hello", "", nil)
	if got != conversationalFallback {
		t.Errorf("expected fallback reply, got %q", got)
	}
}

func TestGenerateCounterQueries_FallsBackWithoutChat(t *testing.T) {
	s := New(Deps{})
	queries := s.generateCounterQueries(context.Background(), "widgets are the future")
	if len(queries) != 3 {
		t.Fatalf("expected 3 fallback queries, got %d: %v", len(queries), queries)
	}
	for _, q := range queries {
		if q == "" {
			t.Errorf("expected no empty fallback query, got %v", queries)
		}
	}
}

func TestValidateDiscoveredSources_PassesThroughWithoutScraper(t *testing.T) {
	s := New(Deps{})
	sources := []discovery.Source{
		{Kind: "web_page", Value: map[string]any{"url": "https://example.com"}},
		{Kind: "news_keyword", Value: map[string]any{"query": "widgets"}},
	}

	validated := s.ValidateDiscoveredSources(context.Background(), "nb1", "intent", sources)

	if len(validated) != 2 {
		t.Fatalf("expected 2 results, got %d", len(validated))
	}
	for i, v := range validated {
		if !v.Validated {
			t.Errorf("expected source %d to pass through as validated without a scraper, got %+v", i, v)
		}
	}
}

func TestValidateDiscoveredSources_SkipsSourcesWithoutURL(t *testing.T) {
	s := New(Deps{})
	sources := []discovery.Source{
		{Kind: "paper_category", Value: map[string]any{"query": "quantum computing"}},
	}

	validated := s.ValidateDiscoveredSources(context.Background(), "nb1", "intent", sources)

	if len(validated) != 1 || !validated[0].Validated || validated[0].Reason != "" {
		t.Errorf("expected a pass-through with no reason recorded, got %+v", validated)
	}
}
