package supervisor

import (
	"context"
	"testing"

	"github.com/kestrelresearch/scout/internal/collect"
)

func TestJudgeSingleItem_AutoApprovesAboveThreshold(t *testing.T) {
	s := New(Deps{})
	item := collect.CollectedItem{Title: "x", OverallConfidence: 0.9}

	result := s.judgeSingleItem(context.Background(), item, "intent")

	if result.Decision != DecisionApprove {
		t.Errorf("expected auto-approve, got %v (%s)", result.Decision, result.Reason)
	}
}

func TestJudgeSingleItem_DefersBelowFloor(t *testing.T) {
	s := New(Deps{})
	item := collect.CollectedItem{Title: "x", OverallConfidence: 0.1}

	result := s.judgeSingleItem(context.Background(), item, "intent")

	if result.Decision != DecisionDeferToUser {
		t.Errorf("expected defer to user, got %v (%s)", result.Decision, result.Reason)
	}
}

func TestJudgeSingleItem_RejectsStaleOverlap(t *testing.T) {
	s := New(Deps{})
	item := collect.CollectedItem{
		Title:             "x",
		OverallConfidence: 0.7,
		KnowledgeOverlap:  0.9,
		DeltaSummary:      "no significant new information here",
	}

	result := s.judgeSingleItem(context.Background(), item, "intent")

	if result.Decision != DecisionReject {
		t.Errorf("expected reject on stale overlap, got %v (%s)", result.Decision, result.Reason)
	}
}

func TestJudgeSingleItem_DefersWithoutChatJudge(t *testing.T) {
	s := New(Deps{})
	item := collect.CollectedItem{
		Title:             "x",
		OverallConfidence: 0.7,
		KnowledgeOverlap:  0.2,
		DeltaSummary:      "substantial new developments reported",
	}

	result := s.judgeSingleItem(context.Background(), item, "intent")

	if result.Decision != DecisionDeferToUser {
		t.Errorf("expected defer without a chat judge, got %v (%s)", result.Decision, result.Reason)
	}
}

func TestJudgeCollection_PreservesOrder(t *testing.T) {
	s := New(Deps{})
	items := []collect.CollectedItem{
		{Title: "a", OverallConfidence: 0.9},
		{Title: "b", OverallConfidence: 0.1},
		{Title: "c", OverallConfidence: 0.7},
	}

	results := s.JudgeCollection(context.Background(), items, "intent")

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Decision != DecisionApprove {
		t.Errorf("expected item a to be approved, got %v", results[0].Decision)
	}
	if results[1].Decision != DecisionDeferToUser {
		t.Errorf("expected item b to be deferred, got %v", results[1].Decision)
	}
}

func TestIsStaleDelta(t *testing.T) {
	tests := []struct {
		name  string
		delta string
		want  bool
	}{
		{"empty", "", true},
		{"no new phrase", "No new developments since last check", true},
		{"already phrase", "This was already covered yesterday", true},
		{"fresh content", "Company announces major acquisition", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStaleDelta(tt.delta); got != tt.want {
				t.Errorf("isStaleDelta(%q) = %v, want %v", tt.delta, got, tt.want)
			}
		})
	}
}

func TestParseJudgment(t *testing.T) {
	tests := []struct {
		name       string
		resp       string
		wantOK     bool
		wantResult Decision
	}{
		{"approve", "APPROVE\nstrong match to intent", true, DecisionApprove},
		{"reject lowercase", "reject\nnot relevant", true, DecisionReject},
		{"defer", "DEFER\nunclear relevance", true, DecisionDeferToUser},
		{"unrecognized", "MAYBE\nwho knows", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, _, ok := parseJudgment(tt.resp)
			if ok != tt.wantOK {
				t.Fatalf("parseJudgment(%q) ok = %v, want %v", tt.resp, ok, tt.wantOK)
			}
			if ok && decision != tt.wantResult {
				t.Errorf("parseJudgment(%q) decision = %v, want %v", tt.resp, decision, tt.wantResult)
			}
		})
	}
}
