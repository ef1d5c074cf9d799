package supervisor

import (
	"strings"
	"testing"

	"github.com/kestrelresearch/scout/internal/memory"
)

func TestPreview(t *testing.T) {
	if got := preview("short", 10); got != "short" {
		t.Errorf("expected short string unchanged, got %q", got)
	}
	if got := preview("this is a long string", 10); got != "this is a ..." {
		t.Errorf("expected truncation with ellipsis, got %q", got)
	}
}

func TestFirstWord(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"quoted entity", `"Acme Corp" appears across 3 notebooks: a, b`, "Acme Corp"},
		{"unquoted", "widgets trending upward", "widgets"},
		{"single word", "standalone", "standalone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstWord(tt.in); got != tt.want {
				t.Errorf("firstWord(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCombinedScore(t *testing.T) {
	h := notebookHit{
		ArchiveSearchResult: memory.ArchiveSearchResult{
			ArchiveRecord: memory.ArchiveRecord{Importance: 1.0},
			Similarity:    1.0,
		},
	}
	got := combinedScore(h)
	if got != 1.0 {
		t.Errorf("expected max combined score of 1.0, got %v", got)
	}

	low := notebookHit{ArchiveSearchResult: memory.ArchiveSearchResult{Similarity: 0, ArchiveRecord: memory.ArchiveRecord{Importance: 0}}}
	if got := combinedScore(low); got != 0 {
		t.Errorf("expected zero combined score, got %v", got)
	}
}

func TestFallbackSynthesis_DedupesByNotebook(t *testing.T) {
	hits := []notebookHit{
		{NotebookID: "nb1", ArchiveSearchResult: memory.ArchiveSearchResult{ArchiveRecord: memory.ArchiveRecord{Content: "first finding"}}},
		{NotebookID: "nb1", ArchiveSearchResult: memory.ArchiveSearchResult{ArchiveRecord: memory.ArchiveRecord{Content: "second finding"}}},
		{NotebookID: "nb2", ArchiveSearchResult: memory.ArchiveSearchResult{ArchiveRecord: memory.ArchiveRecord{Content: "third finding"}}},
	}
	got := fallbackSynthesis(hits)
	if !strings.Contains(got, "nb1") || !strings.Contains(got, "nb2") {
		t.Errorf("expected both notebooks represented, got %q", got)
	}
	if strings.Contains(got, "second finding") {
		t.Errorf("expected only first hit per notebook, got %q", got)
	}
}
