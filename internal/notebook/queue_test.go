package notebook

import (
	"testing"

	"github.com/kestrelresearch/scout/internal/collect"
)

func TestQueue_AddPersistsReviewNote(t *testing.T) {
	q := NewQueue(t.TempDir(), "nb1")
	item := collect.CollectedItem{ID: "item1", Title: "x"}

	if err := q.Add(item, "confidence 0.4 below the review floor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := q.All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ReviewNote != "confidence 0.4 below the review floor" {
		t.Errorf("expected the review note to persist, got %q", entries[0].ReviewNote)
	}
}

func TestQueue_AddWithoutNoteLeavesItBlank(t *testing.T) {
	q := NewQueue(t.TempDir(), "nb1")
	item := collect.CollectedItem{ID: "item1", Title: "x"}

	if err := q.Add(item, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := q.All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries[0].ReviewNote != "" {
		t.Errorf("expected a blank review note, got %q", entries[0].ReviewNote)
	}
}

func TestQueue_RemoveDeletesEntry(t *testing.T) {
	q := NewQueue(t.TempDir(), "nb1")
	_ = q.Add(collect.CollectedItem{ID: "keep"}, "")
	_ = q.Add(collect.CollectedItem{ID: "drop"}, "")

	if err := q.Remove("drop"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := q.All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Item.ID != "keep" {
		t.Errorf("expected only the kept entry to remain, got %v", entries)
	}
}
