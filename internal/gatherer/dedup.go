package gatherer

import (
	"context"
	"strings"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/memory"
)

// isURLDuplicate reports whether the item's URL has already been seen by
// this Gatherer (from the source store, queue, or this run).
func (g *Gatherer) isURLDuplicate(item collect.FetchedItem) bool {
	if item.URL == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seenURLs[item.URL]
}

// isHashDuplicate reports whether the item's content hash has already
// been seen.
func (g *Gatherer) isHashDuplicate(item collect.FetchedItem) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seenHashes[item.ContentHash]
}

// isSemanticDuplicate searches the notebook's GATHERER archive for a
// cosine-similarity match at or above the dedup threshold.
func (g *Gatherer) isSemanticDuplicate(ctx context.Context, item collect.FetchedItem) (bool, string, error) {
	if g.deps.Embedder == nil || g.deps.Archive == nil {
		return false, "", nil
	}
	vec, err := g.deps.Embedder.Embed(ctx, item.Title+"\n"+item.Content)
	if err != nil {
		return false, "", err
	}

	results, err := g.deps.Archive.Search(ctx, g.notebookID, memory.ArchiveSearchInput{
		QueryEmbedding:     memory.NewEmbeddingVector(vec),
		Limit:              1,
		MinSimilarity:      SemanticDedupThreshold,
		AsGathererNotebook: g.notebookID,
	})
	if err != nil {
		return false, "", err
	}
	if len(results) > 0 && results[0].Similarity >= SemanticDedupThreshold {
		return true, results[0].ID, nil
	}
	return false, "", nil
}

// tokenOverlap computes the Jaccard-style token overlap between two texts,
// used to drop items too similar to an avoid_similar_to sample.
func tokenOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		out[tok] = true
	}
	return out
}

// similarToAny reports whether text overlaps any avoid sample at or above
// the token-overlap threshold.
func similarToAny(text string, avoidSamples []string) bool {
	for _, sample := range avoidSamples {
		if tokenOverlap(text, sample) >= TokenOverlapThreshold {
			return true
		}
	}
	return false
}

// matchesAny reports whether text contains any of the given terms,
// case-insensitively — used for the notebook's excluded_topics filter.
func matchesAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

