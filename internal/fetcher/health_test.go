package fetcher

import (
	"testing"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
)

func TestHealthTracker_GetUnknownKeyReturnsNeutralRecord(t *testing.T) {
	h := NewHealthTracker()
	rec := h.Get("never:probed")
	if rec.Health != "" {
		t.Errorf("expected a never-probed key to have no health set, got %q", rec.Health)
	}
	if rec.Trust() != 0.5 {
		t.Errorf("expected a never-probed key to trust at the neutral midpoint, got %v", rec.Trust())
	}
}

func TestHealthTracker_RecordSuccessReportsHealthy(t *testing.T) {
	h := NewHealthTracker()
	err := h.Record("feed:https://example.com", func() (int, error) { return 3, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := h.Get("feed:https://example.com")
	if rec.Health != collect.HealthHealthy {
		t.Errorf("expected healthy after a clean success, got %v", rec.Health)
	}
	if rec.ItemsCollected != 3 {
		t.Errorf("expected ItemsCollected to accumulate the fetch count, got %d", rec.ItemsCollected)
	}
}

func TestHealthTracker_DegradeNow_ForcesDegradedEvenUnprobed(t *testing.T) {
	h := NewHealthTracker()
	h.DegradeNow("feed:https://example.com/never-seen")
	rec := h.Get("feed:https://example.com/never-seen")
	if rec.Health != collect.HealthDegraded {
		t.Errorf("expected DegradeNow to produce a degraded record for an unprobed key, got %v", rec.Health)
	}
}

func TestHealthTracker_DegradeNow_LeavesFailingAlone(t *testing.T) {
	h := NewHealthTracker()
	for i := 0; i < 3; i++ {
		_ = h.Record("feed:flaky", func() (int, error) { return 0, errFake })
	}
	before := h.Get("feed:flaky")
	if before.Health != collect.HealthFailing {
		t.Fatalf("test setup expected failing health after repeated failures, got %v", before.Health)
	}
	h.DegradeNow("feed:flaky")
	after := h.Get("feed:flaky")
	if after.Health != collect.HealthFailing {
		t.Errorf("expected DegradeNow to leave an already-failing record alone, got %v", after.Health)
	}
}

func TestHealthTracker_Degrade_OnlyDemotesStaleHealthyRecords(t *testing.T) {
	h := NewHealthTracker()
	_ = h.Record("feed:ok", func() (int, error) { return 1, nil })

	h.Degrade("feed:ok", time.Now())
	if h.Get("feed:ok").Health != collect.HealthHealthy {
		t.Error("expected a recently-successful record to not be degraded")
	}

	h.Degrade("feed:ok", time.Now().Add(31*24*time.Hour))
	if h.Get("feed:ok").Health != collect.HealthDegraded {
		t.Error("expected a stale healthy record to be degraded")
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errFake = fakeErr("boom")
