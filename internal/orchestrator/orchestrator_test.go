package orchestrator

import (
	"testing"

	"github.com/kestrelresearch/scout/internal/memory"
)

func TestFactImportanceScore_OrdersByImportance(t *testing.T) {
	critical := factImportanceScore(memory.ImportanceCritical)
	high := factImportanceScore(memory.ImportanceHigh)
	medium := factImportanceScore(memory.ImportanceMedium)
	low := factImportanceScore(memory.ImportanceLow)

	if !(critical > high && high > medium && medium > low) {
		t.Fatalf("expected strictly decreasing scores, got critical=%v high=%v medium=%v low=%v", critical, high, medium, low)
	}
}

func TestFactImportanceScore_UnknownDefaultsToLow(t *testing.T) {
	got := factImportanceScore(memory.Importance("unknown"))
	want := factImportanceScore(memory.ImportanceLow)
	if got != want {
		t.Fatalf("expected unknown importance to score like low (%v), got %v", want, got)
	}
}

func TestDefaultConfig_SetsPositiveIntervals(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.CollectionInterval <= 0 || cfg.CompressionInterval <= 0 || cfg.BriefingInterval <= 0 {
		t.Fatalf("expected positive intervals, got %+v", cfg)
	}
}
