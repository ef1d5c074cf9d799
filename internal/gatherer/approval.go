package gatherer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/memory"
)

const (
	// minContentForRAG is the content length below which an approved item
	// is sent through a deep-fetch enrichment pass before ingestion.
	minContentForRAG = 1000
	// minContentAfterEnrichment is the floor below which even an enriched
	// item is rejected as too thin to be worth ingesting.
	minContentAfterEnrichment = 500
	// sourceRecordContentCap bounds how much of an approved item's content
	// is retained on its source record, enough for the coverage-gap
	// analysis's focus-area substring scan without storing full documents
	// twice (the archive tier already holds the complete text).
	sourceRecordContentCap = 2000
)

func truncateContent(content string, max int) string {
	if len(content) <= max {
		return content
	}
	return content[:max]
}

// PersistApproved is the direct-store path: it carries an already-judged
// item straight to the external source store without going through the
// approval queue. Used by the Supervisor when its own judgment (not the
// notebook's approval_mode) has decided APPROVE.
func (g *Gatherer) PersistApproved(ctx context.Context, item collect.CollectedItem) error {
	if err := g.persistApproved(ctx, item); err != nil {
		return err
	}
	if g.deps.Metrics != nil {
		g.deps.Metrics.ItemsApproved.WithLabelValues(g.notebookID, "immediate").Inc()
	}
	return nil
}

// RecordRejection records an item_rejected signal for an item the
// Supervisor judged REJECT outside the normal reject_item flow (the item
// was never queued, so there is nothing to remove).
func (g *Gatherer) RecordRejection(ctx context.Context, item collect.CollectedItem, reason string) {
	if g.deps.Signals == nil {
		return
	}
	if err := g.deps.Signals.Record(ctx, collect.UserSignal{
		NotebookID: g.notebookID,
		Type:       collect.SignalItemRejected,
		ItemID:     item.ID,
		Timestamp:  time.Now(),
		Metadata:   map[string]string{"reason": reason},
	}); err != nil {
		g.deps.Logger.Warn("gatherer: recording item_rejected signal failed", "item", item.ID, "error", err)
	}
	if g.deps.Metrics != nil {
		g.deps.Metrics.ItemsRejected.WithLabelValues(g.notebookID, reason).Inc()
	}
}

// QueueForReview adds a judged item directly to the approval queue, used by
// the Supervisor when judgment defers to the user. note is attached to the
// queue entry as its ReviewNote, typically the judgment's own rationale.
func (g *Gatherer) QueueForReview(item collect.CollectedItem, note string) error {
	return g.queue.Add(item, note)
}

// persistApproved carries an approved item through enrichment, the external
// source store, RAG ingestion, archival, and event notification. Content
// still too short after enrichment, or a failed source-record Create,
// returns an error. Every step after the source record is created is
// best-effort: a failure there is logged and the approval still completes,
// since the user has already made the decision and a downstream hiccup
// shouldn't reverse it.
func (g *Gatherer) persistApproved(ctx context.Context, item collect.CollectedItem) error {
	content := item.Content
	if len(content) < minContentForRAG && g.deps.Scraper != nil {
		if res, err := g.deps.Scraper.Scrape(ctx, item.URL); err == nil && res.Success && len(res.Text) > len(content) {
			content = res.Text
		}
	}
	if len(content) < minContentAfterEnrichment {
		return fmt.Errorf("item %s has only %d chars after enrichment, below the %d-char floor", item.ID, len(content), minContentAfterEnrichment)
	}

	var rec external.SourceRecord
	if g.deps.Sources != nil {
		var err error
		rec, err = g.deps.Sources.Create(ctx, external.SourceRecord{
			NotebookID: g.notebookID,
			Title:      item.Title,
			URL:        item.URL,
			Status:     "processing",
			Content:    truncateContent(content, sourceRecordContentCap),
		})
		if err != nil {
			return fmt.Errorf("creating source record for %s: %w", item.ID, err)
		}
	}

	if g.deps.RAG != nil && rec.ID != "" {
		if _, err := g.deps.RAG.Ingest(ctx, g.notebookID, rec.ID, content, item.Title, string(item.SourceKind)); err != nil {
			g.deps.Logger.Warn("gatherer: RAG ingestion failed", "item", item.ID, "error", err)
		}
	}

	tags := g.autoTag(ctx, item, content)
	if g.deps.Sources != nil && rec.ID != "" {
		rec.Status = "completed"
		rec.Tags = tags
		if err := g.deps.Sources.Update(ctx, rec); err != nil {
			g.deps.Logger.Warn("gatherer: updating source record failed", "item", item.ID, "error", err)
		}
	}

	g.archiveApproved(ctx, item, content, tags)

	if g.deps.Signals != nil {
		if err := g.deps.Signals.Record(ctx, collect.UserSignal{
			NotebookID: g.notebookID,
			Type:       collect.SignalItemApproved,
			ItemID:     item.ID,
			Timestamp:  time.Now(),
			Metadata:   map[string]string{"source": item.SourceName},
		}); err != nil {
			g.deps.Logger.Warn("gatherer: recording item_approved signal failed", "item", item.ID, "error", err)
		}
	}

	if g.deps.Notifier != nil {
		_ = g.deps.Notifier.Notify(ctx, external.Event{
			Type:       notifyEventSourceProcessingCompleted,
			NotebookID: g.notebookID,
			Timestamp:  time.Now(),
			Data: map[string]any{
				"item_id": item.ID,
				"title":   item.Title,
				"url":     item.URL,
			},
		})
	}

	g.markSeen(item)
	return nil
}

// notifyEventSourceProcessingCompleted mirrors notify.EventSourceProcessingCompleted;
// duplicated as a string constant here to avoid gatherer depending on the
// notify package solely for a string literal.
const notifyEventSourceProcessingCompleted = "source_processing_completed"

// autoTag asks the chat-completion capability for a short comma-separated
// tag list. A failed or empty response degrades to no tags rather than
// blocking the approval.
func (g *Gatherer) autoTag(ctx context.Context, item collect.CollectedItem, content string) []string {
	if g.deps.Chat == nil {
		return nil
	}
	preview := content
	if len(preview) > 2000 {
		preview = preview[:2000]
	}
	resp, err := g.deps.Chat.Complete(ctx,
		"You generate 3-6 short topical tags for a piece of content. Respond with only a comma-separated list.",
		fmt.Sprintf("Title: %s\n\n%s", item.Title, preview),
		external.ChatOptions{Timeout: 10 * time.Second})
	if err != nil || resp == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(resp, ",") {
		t = strings.TrimSpace(strings.ToLower(t))
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// archiveApproved writes a GATHERER-namespace archive record for the
// approved item. Failure is logged, never returned, since the item has
// already been persisted to the external source store.
func (g *Gatherer) archiveApproved(ctx context.Context, item collect.CollectedItem, content string, tags []string) {
	if g.deps.Archive == nil {
		return
	}
	var vec memory.ArchiveCreateInput
	if g.deps.Embedder != nil {
		if emb, err := g.deps.Embedder.Embed(ctx, item.Title+"\n"+content); err == nil {
			vec.Embedding = memory.NewEmbeddingVector(emb)
		} else {
			g.deps.Logger.Warn("gatherer: embedding approved item failed", "item", item.ID, "error", err)
		}
	}
	vec.Content = content
	vec.ContentType = string(item.SourceKind)
	vec.SourceType = item.SourceName
	vec.SourceNotebookID = g.notebookID
	vec.Topics = tags
	vec.Importance = item.OverallConfidence
	vec.Namespace = memory.NamespaceGatherer

	if _, err := g.deps.Archive.Write(ctx, vec); err != nil {
		g.deps.Logger.Warn("gatherer: archiving approved item failed", "item", item.ID, "error", err)
	}
}
