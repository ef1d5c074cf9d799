package gatherer

import (
	"context"
	"testing"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/fetcher"
	"github.com/kestrelresearch/scout/internal/notebook"
)

func newTestGatherer(t *testing.T) *Gatherer {
	t.Helper()
	dataDir := t.TempDir()
	return &Gatherer{
		notebookID: "nb1",
		deps:       Deps{Health: fetcher.NewHealthTracker()},
		queue:      notebook.NewQueue(dataDir, "nb1"),
		history:    notebook.NewHistory(dataDir, "nb1"),
		seenURLs:   make(map[string]bool),
		seenHashes: make(map[string]bool),
	}
}

func TestRejectItem_BadSourceDegradesHealth(t *testing.T) {
	g := newTestGatherer(t)
	ctx := context.Background()

	item := collect.CollectedItem{ID: "item1", HealthKey: "feed:https://example.com/bad"}
	if err := g.queue.Add(item, ""); err != nil {
		t.Fatalf("unexpected error queueing item: %v", err)
	}
	// A healthy probe first, so the degrade is observable as a transition.
	_ = g.deps.Health.Record(item.HealthKey, func() (int, error) { return 1, nil })

	if err := g.RejectItem(ctx, "item1", "bad source", collect.FeedbackBadSource); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := g.deps.Health.Get(item.HealthKey)
	if rec.Health != collect.HealthDegraded {
		t.Errorf("expected rejecting an item as bad_source to degrade its health key, got %v", rec.Health)
	}

	entries, err := g.queue.All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected the rejected item to be removed from the queue, got %v", entries)
	}
}

func TestRejectItem_BadSourceWithoutHealthKeyDoesNotPanic(t *testing.T) {
	g := newTestGatherer(t)
	ctx := context.Background()

	item := collect.CollectedItem{ID: "item1"}
	if err := g.queue.Add(item, ""); err != nil {
		t.Fatalf("unexpected error queueing item: %v", err)
	}

	if err := g.RejectItem(ctx, "item1", "bad source", collect.FeedbackBadSource); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRejectItem_TooOldShrinksMaxAgeDays(t *testing.T) {
	g := newTestGatherer(t)
	profiles := notebook.NewStore(t.TempDir())
	g.deps.Profiles = profiles
	if err := profiles.Save(notebook.Profile{NotebookID: "nb1", Filters: notebook.Filters{MaxAgeDays: 30}}); err != nil {
		t.Fatalf("unexpected error saving profile: %v", err)
	}
	g.notebookID = "nb1"

	item := collect.CollectedItem{ID: "item1"}
	_ = g.queue.Add(item, "")

	if err := g.RejectItem(context.Background(), "item1", "too old", collect.FeedbackTooOld); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := profiles.Load("nb1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Filters.MaxAgeDays != 23 {
		t.Errorf("expected max_age_days to shrink by 7, got %d", updated.Filters.MaxAgeDays)
	}
}
