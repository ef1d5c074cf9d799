package supervisor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/memory"
)

// crossSearchPerNotebookLimit and crossSynthesisLimit bound the per-notebook
// hit count and the combined top-N carried into synthesis.
const (
	crossSearchPerNotebookLimit = 20
	crossSynthesisLimit         = 20
	overwatchRelevanceFloor     = 0.5
)

// notebookHit pairs an archive hit with the notebook it was searched under,
// since SUPERVISOR-namespace cross_notebook search doesn't otherwise carry
// which notebook's intent produced it.
type notebookHit struct {
	memory.ArchiveSearchResult
	NotebookID string
}

// searchAllNotebooks runs one archive search per notebook (in parallel, as
// a cross-notebook feature) and tags each hit with its originating
// notebook, skipping notebooks the embedder/archive can't serve.
func (s *Supervisor) searchAllNotebooks(ctx context.Context, query string, notebookIDs []string) ([]notebookHit, error) {
	if s.deps.Embedder == nil || s.deps.Archive == nil {
		return nil, nil
	}
	vec, err := s.deps.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var mu sync.Mutex
	var hits []notebookHit
	var wg sync.WaitGroup
	for _, id := range notebookIDs {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := s.deps.Archive.Search(ctx, id, memory.ArchiveSearchInput{
				QueryEmbedding: memory.NewEmbeddingVector(vec),
				Limit:          crossSearchPerNotebookLimit,
				AsSupervisor:   true,
				CrossNotebook:  true,
			})
			if err != nil {
				s.deps.Logger.Warn("supervisor: cross-notebook search failed", "notebook", id, "error", err)
				return
			}
			mu.Lock()
			for _, r := range results {
				hits = append(hits, notebookHit{ArchiveSearchResult: r, NotebookID: id})
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	return hits, nil
}

func (s *Supervisor) notebookIDs(ctx context.Context, notebookIDs []string) ([]string, error) {
	if len(notebookIDs) > 0 {
		return notebookIDs, nil
	}
	if s.deps.Notebooks == nil {
		return nil, nil
	}
	return s.deps.Notebooks.List(ctx)
}

// SynthesisResult is the outcome of synthesizing a query across notebooks.
type SynthesisResult struct {
	Narrative string
	Hits      []notebookHit
}

// SynthesizeAcrossNotebooks issues parallel SUPERVISOR-namespace,
// cross-notebook archive searches, assembles the top 20 combined-score
// hits, and asks a chat-completion model to synthesize themes,
// contradictions, and connections, citing the originating notebook for
// each.
func (s *Supervisor) SynthesizeAcrossNotebooks(ctx context.Context, query string, notebookIDs []string) (SynthesisResult, error) {
	ids, err := s.notebookIDs(ctx, notebookIDs)
	if err != nil {
		return SynthesisResult{}, fmt.Errorf("listing notebooks: %w", err)
	}
	hits, err := s.searchAllNotebooks(ctx, query, ids)
	if err != nil {
		return SynthesisResult{}, err
	}
	sort.Slice(hits, func(i, j int) bool { return combinedScore(hits[i]) > combinedScore(hits[j]) })
	if len(hits) > crossSynthesisLimit {
		hits = hits[:crossSynthesisLimit]
	}
	out := SynthesisResult{Hits: hits}
	if len(hits) == 0 {
		out.Narrative = "no related material found across notebooks"
		return out, nil
	}
	if s.deps.Chat == nil {
		out.Narrative = fallbackSynthesis(hits)
		return out, nil
	}

	var sb strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, h.NotebookID, preview(h.Content, 300))
	}
	system := "You synthesize findings gathered across several independent research notebooks into themes, " +
		"contradictions, and connections. Cite the originating notebook id for each point you make."
	prompt := fmt.Sprintf("Query: %s\n\nFindings:\n%s", query, sb.String())
	resp, err := s.deps.Chat.Complete(ctx, system, prompt, external.ChatOptions{Timeout: 20 * time.Second})
	if err != nil || resp == "" {
		out.Narrative = fallbackSynthesis(hits)
		return out, nil
	}
	out.Narrative = resp
	return out, nil
}

func fallbackSynthesis(hits []notebookHit) string {
	var sb strings.Builder
	sb.WriteString("related material found in:\n")
	seen := make(map[string]bool)
	for _, h := range hits {
		if seen[h.NotebookID] {
			continue
		}
		seen[h.NotebookID] = true
		fmt.Fprintf(&sb, "- %s: %s\n", h.NotebookID, preview(h.Content, 120))
	}
	return sb.String()
}

// Insight is an emergent cross-workspace observation.
type Insight struct {
	Type        string
	Description string
	NotebookIDs []string
}

// DiscoverCrossWorkspacePatterns computes the set of entities appearing in
// at least two notebooks' archives and emits a cross_reference insight for
// each.
func (s *Supervisor) DiscoverCrossWorkspacePatterns(ctx context.Context) ([]Insight, error) {
	if s.deps.Archive == nil {
		return nil, nil
	}
	ids, err := s.notebookIDs(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing notebooks: %w", err)
	}

	entityNotebooks := make(map[string]map[string]bool)
	for _, id := range ids {
		results, err := s.deps.Archive.Search(ctx, id, memory.ArchiveSearchInput{
			AsGathererNotebook: id,
			Limit:              crossSearchPerNotebookLimit,
			MinSimilarity:      0,
		})
		if err != nil {
			s.deps.Logger.Warn("supervisor: pattern-discovery search failed", "notebook", id, "error", err)
			continue
		}
		for _, r := range results {
			for _, e := range r.Entities {
				e = strings.TrimSpace(e)
				if e == "" {
					continue
				}
				if entityNotebooks[e] == nil {
					entityNotebooks[e] = make(map[string]bool)
				}
				entityNotebooks[e][id] = true
			}
		}
	}

	var insights []Insight
	for entity, notebooks := range entityNotebooks {
		if len(notebooks) < 2 {
			continue
		}
		var nbIDs []string
		for nb := range notebooks {
			nbIDs = append(nbIDs, nb)
		}
		sort.Strings(nbIDs)
		insights = append(insights, Insight{
			Type:        "cross_reference",
			Description: fmt.Sprintf("%q appears across %d notebooks: %s", entity, len(nbIDs), strings.Join(nbIDs, ", ")),
			NotebookIDs: nbIDs,
		})
	}
	sort.Slice(insights, func(i, j int) bool { return insights[i].Description < insights[j].Description })
	return insights, nil
}

// SurfaceInsightIfRelevant returns a short surfaced insight if a discovered
// cross-workspace pattern bears on query, or "" if none does.
func (s *Supervisor) SurfaceInsightIfRelevant(ctx context.Context, query string) (string, error) {
	insights, err := s.DiscoverCrossWorkspacePatterns(ctx)
	if err != nil || len(insights) == 0 {
		return "", err
	}
	queryLower := strings.ToLower(query)
	for _, ins := range insights {
		if strings.Contains(queryLower, strings.ToLower(firstWord(ins.Description))) {
			return ins.Description, nil
		}
	}
	return "", nil
}

func firstWord(s string) string {
	if strings.HasPrefix(s, `"`) {
		if end := strings.Index(s[1:], `"`); end >= 0 {
			return s[1 : end+1]
		}
	}
	s = strings.Trim(s, `"`)
	if i := strings.IndexAny(s, ` "`); i >= 0 {
		return s[:i]
	}
	return s
}

// GenerateOverwatchAside searches other notebooks for the same query as a
// just-answered question in notebookID; hits with combined score >0.5 are
// candidates, then a chat-completion decides whether surfacing them adds
// value, returning "" when it would not.
func (s *Supervisor) GenerateOverwatchAside(ctx context.Context, query, answer, notebookID string) (string, error) {
	ids, err := s.notebookIDs(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("listing notebooks: %w", err)
	}
	var others []string
	for _, id := range ids {
		if id != notebookID {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return "", nil
	}

	hits, err := s.searchAllNotebooks(ctx, query, others)
	if err != nil {
		return "", err
	}
	var candidates []notebookHit
	for _, h := range hits {
		if combinedScore(h) > overwatchRelevanceFloor {
			candidates = append(candidates, h)
		}
	}
	if len(candidates) == 0 {
		return "", nil
	}
	sort.Slice(candidates, func(i, j int) bool { return combinedScore(candidates[i]) > combinedScore(candidates[j]) })

	if s.deps.Chat == nil {
		return "", nil
	}
	var sb strings.Builder
	for i, c := range candidates {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&sb, "- [%s] %s\n", c.NotebookID, preview(c.Content, 200))
	}
	system := "You decide whether material found in other research notebooks is worth surfacing as a brief aside " +
		"alongside an answer already given in one notebook. If it adds no real value, respond with exactly SKIP. " +
		"Otherwise respond with one short sentence."
	prompt := fmt.Sprintf("Query: %s\nAnswer already given: %s\n\nRelated material in other notebooks:\n%s", query, answer, sb.String())
	resp, err := s.deps.Chat.Complete(ctx, system, prompt, external.ChatOptions{Timeout: 10 * time.Second})
	if err != nil || resp == "" {
		return "", nil
	}
	resp = strings.TrimSpace(resp)
	if strings.EqualFold(resp, "SKIP") {
		return "", nil
	}
	return resp, nil
}

func combinedScore(h notebookHit) float64 {
	return h.Similarity*0.7 + h.Importance*0.3
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
