package gatherer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/memory"
)

// contextualize searches the notebook's own GATHERER archive for related
// prior material and fills in the item's delta/temporal/new-topic fields.
// A missing embedder or archive leaves the item uncontextualized (new
// topic, zero overlap) rather than failing the item.
func (g *Gatherer) contextualize(ctx context.Context, item *collect.CollectedItem) {
	if g.deps.Embedder == nil || g.deps.Archive == nil {
		item.IsNewTopic = true
		return
	}

	vec, err := g.deps.Embedder.Embed(ctx, item.Title+"\n"+item.Content)
	if err != nil {
		item.IsNewTopic = true
		return
	}

	results, err := g.deps.Archive.Search(ctx, g.notebookID, memory.ArchiveSearchInput{
		QueryEmbedding:     memory.NewEmbeddingVector(vec),
		Limit:              MaxContextualMatches,
		MinSimilarity:      ContextualSimilarityFloor,
		AsGathererNotebook: g.notebookID,
	})
	if err != nil || len(results) == 0 {
		item.IsNewTopic = true
		return
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })

	maxSim := results[0].Similarity
	top := results
	if len(top) > 5 {
		top = top[:5]
	}
	var sum float64
	for _, r := range top {
		sum += r.Similarity
	}
	avgTop5 := sum / float64(len(top))

	item.KnowledgeOverlap = 0.6*maxSim + 0.4*avgTop5
	item.IsNewTopic = maxSim < ContextualSimilarityFloor

	related := results
	if len(related) > 3 {
		related = related[:3]
	}
	for _, r := range related {
		item.RelatedTitles = append(item.RelatedTitles, collect.Preview80(r.Content))
	}

	if g.deps.Chat != nil {
		item.DeltaSummary, item.TemporalContext = g.summarizeDelta(ctx, item, related)
	}
}

// summarizeDelta asks the chat-completion capability to describe what is
// new relative to the related records, and to place the item in temporal
// context relative to them. Failure degrades to empty strings.
func (g *Gatherer) summarizeDelta(ctx context.Context, item *collect.CollectedItem, related []memory.ArchiveSearchResult) (delta, temporal string) {
	var sb strings.Builder
	for i, r := range related {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, collect.Preview80(r.Content))
	}

	prompt := fmt.Sprintf("New item:\nTitle: %s\nPreview: %s\n\nRelated prior material:\n%s\n\nIn one sentence, what is new here relative to the related material? Then on a second line, describe its temporal context (e.g. \"supersedes\", \"confirms\", \"follow-up to\").",
		item.Title, item.Preview, sb.String())

	resp, err := g.deps.Chat.Complete(ctx,
		"You summarize how a new research item relates to previously collected material.",
		prompt, external.ChatOptions{Timeout: 10 * time.Second})
	if err != nil || resp == "" {
		return "", ""
	}

	lines := strings.SplitN(strings.TrimSpace(resp), "\n", 2)
	delta = strings.TrimSpace(lines[0])
	if len(lines) > 1 {
		temporal = strings.TrimSpace(lines[1])
	}
	return delta, temporal
}
