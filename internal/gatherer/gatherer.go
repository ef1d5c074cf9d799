// Package gatherer implements the per-notebook Gatherer agent: collection
// task execution, dedup, scoring, contextualization, diversity
// enforcement, and the approval queue.
package gatherer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/fetcher"
	"github.com/kestrelresearch/scout/internal/memory"
	"github.com/kestrelresearch/scout/internal/metrics"
	"github.com/kestrelresearch/scout/internal/notebook"
	"github.com/kestrelresearch/scout/internal/preferences"
)

// Deps are the injected collaborators a Gatherer needs — explicit handles,
// per the constructor-injection design, rather than implicit globals.
type Deps struct {
	Profiles  *notebook.Store
	Fetcher   *fetcher.Fetcher
	Health    *fetcher.HealthTracker
	Archive   *memory.Archive
	Signals   *memory.Signals
	Embedder  external.Embedder
	Chat      external.ChatCompleter
	Scraper   external.WebScraper
	RAG       external.RAGIngestor
	Sources   external.SourceStore
	Notifier  external.Notifier
	Learner   *preferences.Learner
	Metrics   *metrics.Metrics
	DataDir   string
	Logger    *slog.Logger
}

// Gatherer is one notebook's worker agent. State is primed from the
// external source store and the approval queue at construction time.
type Gatherer struct {
	notebookID string
	deps       Deps
	queue      *notebook.Queue
	history    *notebook.History

	mu          sync.Mutex
	seenURLs    map[string]bool
	seenHashes  map[string]bool
}

// CreateGatherer is the only constructor: construction is uniformly
// asynchronous, priming dedup state from the external source store and the
// approval queue before returning.
func CreateGatherer(ctx context.Context, notebookID string, deps Deps) (*Gatherer, error) {
	g := &Gatherer{
		notebookID: notebookID,
		deps:       deps,
		queue:      notebook.NewQueue(deps.DataDir, notebookID),
		history:    notebook.NewHistory(deps.DataDir, notebookID),
		seenURLs:   make(map[string]bool),
		seenHashes: make(map[string]bool),
	}

	if deps.Sources != nil {
		existing, err := deps.Sources.List(ctx, notebookID)
		if err != nil {
			deps.Logger.Warn("gatherer: priming from source store failed", "notebook", notebookID, "error", err)
		} else {
			for _, s := range existing {
				g.seenURLs[s.URL] = true
			}
		}
	}

	if entries, err := g.queue.All(); err == nil {
		for _, e := range entries {
			g.seenURLs[e.Item.URL] = true
			g.seenHashes[e.Item.ContentHash] = true
		}
	}

	return g, nil
}

// GetPendingApprovals returns every live (non-expired) queue entry.
func (g *Gatherer) GetPendingApprovals() ([]collect.ApprovalQueueEntry, error) {
	return g.queue.All()
}

// GetExpiringSoon returns queue entries expiring within the given number
// of days.
func (g *Gatherer) GetExpiringSoon(days int) ([]collect.ApprovalQueueEntry, error) {
	return g.queue.ExpiringSoon(time.Duration(days) * 24 * time.Hour)
}

// RunsSince returns every recorded collection run at or after t, for the
// Briefing Pipeline's collection-run-count stat.
func (g *Gatherer) RunsSince(t time.Time) ([]notebook.CollectionRun, error) {
	return g.history.Since(t)
}

// ApproveItem approves a single queued item by ID.
func (g *Gatherer) ApproveItem(ctx context.Context, itemID string) error {
	entries, err := g.queue.All()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Item.ID == itemID {
			if err := g.persistApproved(ctx, e.Item); err != nil {
				return err
			}
			return g.queue.Remove(itemID)
		}
	}
	return fmt.Errorf("queue entry %s not found", itemID)
}

// ApproveBatch approves every ID in ids, continuing past individual
// failures and returning the first error encountered (if any) after
// attempting them all.
func (g *Gatherer) ApproveBatch(ctx context.Context, ids []string) error {
	var firstErr error
	for _, id := range ids {
		if err := g.ApproveItem(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ApproveAllFromSource approves every queued item whose SourceName matches.
func (g *Gatherer) ApproveAllFromSource(ctx context.Context, sourceName string) error {
	entries, err := g.queue.All()
	if err != nil {
		return err
	}
	var ids []string
	for _, e := range entries {
		if e.Item.SourceName == sourceName {
			ids = append(ids, e.Item.ID)
		}
	}
	return g.ApproveBatch(ctx, ids)
}

// RejectItem rejects a queued item, recording an item_rejected signal and
// applying feedback-driven adaptive behavior.
func (g *Gatherer) RejectItem(ctx context.Context, itemID, reason string, feedback collect.RejectionFeedback) error {
	entries, err := g.queue.All()
	if err != nil {
		return err
	}
	var rejected collect.CollectedItem
	var found bool
	for _, e := range entries {
		if e.Item.ID == itemID {
			rejected = e.Item
			found = true
			break
		}
	}

	if err := g.queue.Remove(itemID); err != nil {
		return err
	}

	if g.deps.Signals != nil {
		_ = g.deps.Signals.Record(ctx, collect.UserSignal{
			NotebookID: g.notebookID,
			Type:       collect.SignalItemRejected,
			ItemID:     itemID,
			Timestamp:  time.Now(),
			Metadata:   map[string]string{"reason": reason, "feedback_type": string(feedback)},
		})
	}

	switch feedback {
	case collect.FeedbackBadSource:
		if found && rejected.HealthKey != "" && g.deps.Health != nil {
			g.deps.Health.DegradeNow(rejected.HealthKey)
		}
	case collect.FeedbackTooOld:
		profile, err := g.deps.Profiles.Load(g.notebookID)
		if err == nil {
			if profile.Filters.MaxAgeDays > 7 {
				profile.Filters.MaxAgeDays -= 7
			} else {
				profile.Filters.MaxAgeDays = 7
			}
			_ = g.deps.Profiles.Save(profile)
		}
	case collect.FeedbackWrongTopic:
		// Hook for excluded-topic extension; no-op until a concrete
		// extension policy is specified.
	}
	return nil
}

// ReducePriorityForPatterns degrades the health record keyed by each given
// pattern (an exact source key, not a wildcard), used to de-rank
// repeatedly-rejected sources.
func (g *Gatherer) ReducePriorityForPatterns(patterns []string) {
	for _, p := range patterns {
		g.deps.Health.DegradeNow(p)
	}
}

// ExpandFocusAreas appends search-miss-derived areas to the notebook's
// focus area list.
func (g *Gatherer) ExpandFocusAreas(ctx context.Context, searchMisses []string) error {
	profile, err := g.deps.Profiles.Load(g.notebookID)
	if err != nil {
		return err
	}
	existing := make(map[string]bool)
	for _, a := range profile.FocusAreas {
		existing[strings.ToLower(a)] = true
	}
	for _, miss := range searchMisses {
		if !existing[strings.ToLower(miss)] {
			profile.FocusAreas = append(profile.FocusAreas, miss)
			existing[strings.ToLower(miss)] = true
		}
	}
	return g.deps.Profiles.Save(profile)
}

func (g *Gatherer) markSeen(item collect.CollectedItem) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seenURLs[item.URL] = true
	g.seenHashes[item.ContentHash] = true
}
