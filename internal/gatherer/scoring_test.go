package gatherer

import (
	"context"
	"testing"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/notebook"
)

func TestScoreFreshness(t *testing.T) {
	tests := []struct {
		name       string
		age        time.Duration
		maxAgeDays int
		want       float64
	}{
		{"under a day", 12 * time.Hour, 30, 1.0},
		{"under three days", 48 * time.Hour, 30, 0.8},
		{"under a week", 100 * time.Hour, 30, 0.6},
		{"past max age", 31 * 24 * time.Hour, 30, 0.0},
		{"defaults max age to 30 days", 40 * 24 * time.Hour, 0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &collect.CollectedItem{CollectedAt: time.Now().Add(-tt.age)}
			got := scoreFreshness(item, tt.maxAgeDays)
			if got != tt.want {
				t.Errorf("scoreFreshness(age=%v, maxAgeDays=%d) = %v, want %v", tt.age, tt.maxAgeDays, got, tt.want)
			}
		})
	}
}

func TestScoreFreshness_DecaysLinearlyBetweenWeekAndMax(t *testing.T) {
	item := &collect.CollectedItem{CollectedAt: time.Now().Add(-14 * 24 * time.Hour)}
	got := scoreFreshness(item, 30)
	if got <= 0.3 || got >= 0.6 {
		t.Errorf("expected mid-range decay value, got %v", got)
	}
}

func TestCalculateConfidence_FreshnessZeroCapsOverall(t *testing.T) {
	g := &Gatherer{}
	item := &collect.CollectedItem{
		Title:       "old news",
		CollectedAt: time.Now().Add(-60 * 24 * time.Hour),
	}
	sc := scoringContext{profile: notebook.Profile{Filters: notebook.Filters{MaxAgeDays: 30}}}

	g.calculateConfidence(context.Background(), item, sc)

	if item.FreshnessScore != 0 {
		t.Fatalf("expected freshness 0 for an item past max age, got %v", item.FreshnessScore)
	}
	if item.OverallConfidence > 0.35 {
		t.Errorf("expected freshness=0 override to cap overall confidence at 0.35, got %v", item.OverallConfidence)
	}
}

func TestCalculateConfidence_NoChatJudgeDefaultsToMidpointRelevance(t *testing.T) {
	g := &Gatherer{}
	item := &collect.CollectedItem{Title: "x", CollectedAt: time.Now()}
	sc := scoringContext{profile: notebook.Profile{}}

	g.calculateConfidence(context.Background(), item, sc)

	if item.RelevanceScore != 0.5 {
		t.Errorf("expected relevance to default to 0.5 without a chat judge, got %v", item.RelevanceScore)
	}
}

func TestCalculateConfidence_MinRelevanceGateZeroesConfidence(t *testing.T) {
	g := &Gatherer{}
	item := &collect.CollectedItem{Title: "x", CollectedAt: time.Now()}
	sc := scoringContext{profile: notebook.Profile{Filters: notebook.Filters{MinRelevance: 0.9}}}

	g.calculateConfidence(context.Background(), item, sc)

	if item.RelevanceScore >= sc.profile.Filters.MinRelevance {
		t.Fatalf("test assumes no chat judge defaults relevance to 0.5, got %v", item.RelevanceScore)
	}
	if item.OverallConfidence != 0 {
		t.Errorf("expected overall confidence zeroed below min_relevance, got %v", item.OverallConfidence)
	}
	found := false
	for _, r := range item.ConfidenceReasons {
		if r == "relevance 0.50 below notebook minimum 0.90" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a min-relevance reason, got %v", item.ConfidenceReasons)
	}
}

func TestCalculateConfidence_MinRelevanceZeroDoesNotGate(t *testing.T) {
	g := &Gatherer{}
	item := &collect.CollectedItem{Title: "x", CollectedAt: time.Now()}
	sc := scoringContext{profile: notebook.Profile{}}

	g.calculateConfidence(context.Background(), item, sc)

	if item.OverallConfidence == 0 {
		t.Errorf("expected no min_relevance gate when unset, got overall confidence 0")
	}
}

func TestParseFloat01(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"plain", "0.42", 0.42, true},
		{"clamped high", "3", 1, true},
		{"clamped low", "-1", 0, true},
		{"garbage", "not a number", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseFloat01(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("parseFloat01(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("parseFloat01(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
