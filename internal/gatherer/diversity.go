package gatherer

import (
	"net/url"
	"sort"
	"strings"

	"github.com/kestrelresearch/scout/internal/collect"
)

// effectiveDomain returns the second-level domain used for diversity
// bucketing (e.g. "blog.example.com" -> "example.com").
func effectiveDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	host := u.Hostname()
	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return host
}

// enforceDiversity greedily selects up to min(maxItemsPerRun, 15) items,
// descending by diversity score, applying a hard -1.0 penalty once a
// domain's selected count reaches PerDomainCap.
func enforceDiversity(items []collect.CollectedItem, maxItemsPerRun int) []collect.CollectedItem {
	cap := maxItemsPerRun
	if cap <= 0 || cap > MaxItemsPerRun {
		cap = MaxItemsPerRun
	}

	type candidate struct {
		item   collect.CollectedItem
		domain string
	}
	candidates := make([]candidate, len(items))
	for i, it := range items {
		candidates[i] = candidate{item: it, domain: effectiveDomain(it.URL)}
	}

	selected := make([]collect.CollectedItem, 0, cap)
	domainCounts := make(map[string]int)
	remaining := candidates

	for len(selected) < cap && len(remaining) > 0 {
		bestIdx := -1
		bestScore := -2.0
		for i, c := range remaining {
			score := diversityScore(c.item, domainCounts[c.domain])
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		chosen := remaining[bestIdx]
		if domainCounts[chosen.domain] >= PerDomainCap {
			// Every remaining candidate is capped out; nothing left worth
			// selecting.
			break
		}
		selected = append(selected, chosen.item)
		domainCounts[chosen.domain]++
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func diversityScore(item collect.CollectedItem, domainCount int) float64 {
	newTopic := 0.0
	if item.IsNewTopic {
		newTopic = 1.0
	}
	score := 0.3*newTopic + 0.3*(1-item.KnowledgeOverlap) + 0.2/(1+float64(domainCount)) + 0.2*item.OverallConfidence
	if domainCount >= PerDomainCap {
		score -= 1.0
	}
	return score
}

// sortByConfidenceDesc is a small helper used when presenting items
// without full diversity enforcement (e.g. first sweep).
func sortByConfidenceDesc(items []collect.CollectedItem) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].OverallConfidence > items[j].OverallConfidence
	})
}
