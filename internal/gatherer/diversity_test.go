package gatherer

import (
	"testing"

	"github.com/kestrelresearch/scout/internal/collect"
)

func TestEffectiveDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://blog.example.com/a", "example.com"},
		{"https://example.com/b", "example.com"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := effectiveDomain(tt.url); got != tt.want {
			t.Errorf("effectiveDomain(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestEnforceDiversity_CapsPerDomain(t *testing.T) {
	var items []collect.CollectedItem
	for i := 0; i < PerDomainCap+3; i++ {
		items = append(items, collect.CollectedItem{
			ID:                "same-domain",
			URL:               "https://same.com/article",
			OverallConfidence: 0.9,
			IsNewTopic:        true,
		})
	}

	selected := enforceDiversity(items, MaxItemsPerRun)

	if len(selected) != PerDomainCap {
		t.Fatalf("expected exactly %d items from an over-represented domain, got %d", PerDomainCap, len(selected))
	}
}

func TestEnforceDiversity_PrefersDiverseDomainsOverSingleDomainConfidence(t *testing.T) {
	var items []collect.CollectedItem
	for i := 0; i < PerDomainCap+2; i++ {
		items = append(items, collect.CollectedItem{
			ID:                "crowded",
			URL:               "https://crowded.com/x",
			OverallConfidence: 0.95,
		})
	}
	items = append(items, collect.CollectedItem{
		ID:                "lonely",
		URL:               "https://lonely.com/y",
		OverallConfidence: 0.5,
	})

	selected := enforceDiversity(items, MaxItemsPerRun)

	foundLonely := false
	for _, it := range selected {
		if it.ID == "lonely" {
			foundLonely = true
		}
	}
	if !foundLonely {
		t.Errorf("expected the lone distinct domain to survive the domain cap, got %v", selected)
	}
}

func TestEnforceDiversity_RespectsMaxItemsPerRunCeiling(t *testing.T) {
	var items []collect.CollectedItem
	for i := 0; i < MaxItemsPerRun+10; i++ {
		items = append(items, collect.CollectedItem{
			ID:  string(rune('a' + i%26)),
			URL: "https://domain" + string(rune('a'+i%26)) + ".com/x",
		})
	}

	selected := enforceDiversity(items, 0)

	if len(selected) > MaxItemsPerRun {
		t.Errorf("expected at most %d items when maxItemsPerRun<=0, got %d", MaxItemsPerRun, len(selected))
	}
}

func TestEnforceDiversity_EmptyInput(t *testing.T) {
	if got := enforceDiversity(nil, MaxItemsPerRun); len(got) != 0 {
		t.Errorf("expected no items from empty input, got %v", got)
	}
}
