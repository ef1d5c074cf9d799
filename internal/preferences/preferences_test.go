package preferences

import (
	"context"
	"testing"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/memory"
)

func newTestLearner(t *testing.T) (*Learner, *memory.Signals) {
	t.Helper()
	re, err := memory.NewRecentExchanges(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error opening recent-exchanges db: %v", err)
	}
	sigs, err := memory.NewSignals(re)
	if err != nil {
		t.Fatalf("unexpected error creating signals log: %v", err)
	}
	return NewLearner(sigs), sigs
}

func TestAggregate_WeightsContentHighlightedAboveUserCapture(t *testing.T) {
	learner, sigs := newTestLearner(t)
	ctx := context.Background()

	_ = sigs.Record(ctx, collect.UserSignal{
		NotebookID: "nb1", Type: collect.SignalContentHighlighted,
		Metadata: map[string]string{"topic": "quantum computing"},
	})
	_ = sigs.Record(ctx, collect.UserSignal{
		NotebookID: "nb1", Type: collect.SignalUserCapture,
		Metadata: map[string]string{"topic": "gardening"},
	})

	prefs, err := learner.Aggregate(ctx, "nb1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prefs.PreferredTopics) == 0 || prefs.PreferredTopics[0] != "quantum computing" {
		t.Errorf("expected content_highlighted's x3 weight to rank first, got %v", prefs.PreferredTopics)
	}
	if prefs.HighlightCount != 1 {
		t.Errorf("expected 1 highlight recorded, got %d", prefs.HighlightCount)
	}
}

func TestAggregate_ApprovalRateFromApprovalsAndRejections(t *testing.T) {
	learner, sigs := newTestLearner(t)
	ctx := context.Background()

	_ = sigs.Record(ctx, collect.UserSignal{NotebookID: "nb1", Type: collect.SignalItemApproved})
	_ = sigs.Record(ctx, collect.UserSignal{NotebookID: "nb1", Type: collect.SignalItemApproved})
	_ = sigs.Record(ctx, collect.UserSignal{NotebookID: "nb1", Type: collect.SignalItemRejected})

	prefs, err := learner.Aggregate(ctx, "nb1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 2.0 / 3.0
	if prefs.ApprovalRate != want {
		t.Errorf("expected approval rate %v, got %v", want, prefs.ApprovalRate)
	}
}

func TestAggregate_NoSignalsYieldsZeroApprovalRate(t *testing.T) {
	learner, _ := newTestLearner(t)
	prefs, err := learner.Aggregate(context.Background(), "empty-notebook")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prefs.ApprovalRate != 0 {
		t.Errorf("expected zero approval rate with no signals, got %v", prefs.ApprovalRate)
	}
}

func TestAggregate_SourceRejectedFeedsRejectedPatterns(t *testing.T) {
	learner, sigs := newTestLearner(t)
	ctx := context.Background()

	_ = sigs.Record(ctx, collect.UserSignal{
		NotebookID: "nb1", Type: collect.SignalSourceRejected,
		Metadata: map[string]string{"pattern": "clickbait.example.com"},
	})

	prefs, err := learner.Aggregate(ctx, "nb1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prefs.RejectedPatterns) != 1 || prefs.RejectedPatterns[0] != "clickbait.example.com" {
		t.Errorf("expected the rejected pattern to be recorded, got %v", prefs.RejectedPatterns)
	}
}

func TestTopN_TiesBrokenAlphabetically(t *testing.T) {
	weights := map[string]int{"zebra": 2, "apple": 2, "mango": 1}
	got := topN(weights, 3)
	if len(got) != 3 || got[0] != "apple" || got[1] != "zebra" {
		t.Errorf("expected ties broken alphabetically, got %v", got)
	}
}

func TestTopN_TruncatesToLimit(t *testing.T) {
	weights := map[string]int{"a": 1, "b": 2, "c": 3}
	got := topN(weights, 2)
	if len(got) != 2 || got[0] != "c" || got[1] != "b" {
		t.Errorf("expected top 2 by weight, got %v", got)
	}
}
