package briefings

import (
	"strings"
	"testing"
)

func TestTokenize_FiltersStopWordsAndShortWords(t *testing.T) {
	got := tokenize("The New Guide to Rust Async Runtimes")
	want := map[string]bool{"guide": true, "rust": true, "async": true, "runtimes": true}
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %v", len(want), got)
	}
	for _, w := range got {
		if !want[w] {
			t.Fatalf("unexpected token %q", w)
		}
	}
}

func TestEmergingTopics_RequiresRepetitionAndNovelty(t *testing.T) {
	thisWeek := []string{"Rust async runtimes", "Rust async patterns", "Kubernetes basics"}
	priorWindow := []string{"Kubernetes operators deep dive"}

	got := emergingTopics(thisWeek, priorWindow)

	foundRust := false
	for _, topic := range got {
		if topic == "rust" {
			foundRust = true
		}
		if topic == "kubernetes" {
			t.Fatalf("kubernetes should not be emerging, it appeared in the prior window")
		}
	}
	if !foundRust {
		t.Fatalf("expected rust to be emerging, got %v", got)
	}
}

func TestEmergingTopics_SingleMentionNotEmerging(t *testing.T) {
	got := emergingTopics([]string{"Quantum computing breakthrough"}, nil)
	if len(got) != 0 {
		t.Fatalf("expected no emerging topics from a single mention, got %v", got)
	}
}

func TestHasActivity_FalseWhenAllZero(t *testing.T) {
	s := NotebookStats{NotebookID: "n1"}
	if s.hasActivity() {
		t.Fatalf("expected no activity for a zero-value NotebookStats")
	}
}

func TestHasActivity_TrueWithPendingApprovals(t *testing.T) {
	s := NotebookStats{NotebookID: "n1", PendingApprovals: 2}
	if !s.hasActivity() {
		t.Fatalf("expected activity when pending approvals is non-zero")
	}
}

func TestFallbackNarrative_EmptyWhenNoActiveNotebooks(t *testing.T) {
	b := &Briefing{}
	got := fallbackNarrative(b)
	if !strings.Contains(got, "No notable activity") {
		t.Fatalf("expected no-activity message, got %q", got)
	}
}

func TestFallbackNarrative_IncludesTopFindingAndEmergingTopics(t *testing.T) {
	b := &Briefing{
		Notebooks: []NotebookStats{
			{
				NotebookID:     "research-ai",
				NewItems:       3,
				TopFinding:     "New transformer architecture paper",
				EmergingTopics: []string{"diffusion", "sparsity"},
			},
		},
	}
	got := fallbackNarrative(b)
	if !strings.Contains(got, "research-ai") {
		t.Fatalf("expected notebook id in narrative, got %q", got)
	}
	if !strings.Contains(got, "New transformer architecture paper") {
		t.Fatalf("expected top finding in narrative, got %q", got)
	}
	if !strings.Contains(got, "diffusion") {
		t.Fatalf("expected emerging topics in narrative, got %q", got)
	}
}

func TestFallbackNarrative_IncludesCrossNotebookInsight(t *testing.T) {
	b := &Briefing{
		Notebooks:            []NotebookStats{{NotebookID: "n1", NewItems: 1}},
		CrossNotebookInsight: "Both your Rust and Go notebooks mention io_uring this week.",
	}
	got := fallbackNarrative(b)
	if !strings.Contains(got, "io_uring") {
		t.Fatalf("expected cross-notebook insight to be included, got %q", got)
	}
}
