// Package orchestrator implements the Ambient Orchestrator: the periodic
// scheduler that triggers routine collection and keeps the Memory Store's
// bounded tiers under their limits.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kestrelresearch/scout/internal/briefings"
	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/memory"
	"github.com/kestrelresearch/scout/internal/notebook"
	"github.com/kestrelresearch/scout/internal/supervisor"
)

// Config controls the Orchestrator's trigger intervals.
type Config struct {
	CollectionInterval  time.Duration
	CompressionInterval time.Duration
	BriefingInterval    time.Duration
}

// DefaultConfig matches the spec's "daily by default" collection trigger,
// with working-facts/archive compression checked on a tighter cadence
// since both operations are cheap no-ops when nothing is over threshold.
func DefaultConfig() Config {
	return Config{
		CollectionInterval:  24 * time.Hour,
		CompressionInterval: time.Hour,
		BriefingInterval:    24 * time.Hour,
	}
}

// UnsummarizedThreshold is the recent-exchanges tier size above which
// archive compression (summarize-and-archive) kicks in.
const UnsummarizedThreshold = 100

// Orchestrator owns the background trigger goroutines. It holds no pipeline
// logic itself — every trigger delegates to the Supervisor or a Memory
// Store tier.
type Orchestrator struct {
	supervisor *supervisor.Supervisor
	notebooks  external.NotebookStore
	profiles   *notebook.Store
	working    *memory.WorkingFacts
	recent     *memory.RecentExchanges
	archive    *memory.Archive
	embedder   external.Embedder
	chat       external.ChatCompleter
	assembler  *briefings.Assembler
	notifier   external.Notifier
	config     Config
	logger     *slog.Logger

	lastBriefing time.Time
}

// New returns an Orchestrator bound to its collaborators. assembler and
// notifier may be nil — the briefing trigger is then a no-op, same as any
// other optional collaborator in this codebase.
func New(sup *supervisor.Supervisor, notebooks external.NotebookStore, profiles *notebook.Store, working *memory.WorkingFacts, recent *memory.RecentExchanges, archive *memory.Archive, embedder external.Embedder, chat external.ChatCompleter, assembler *briefings.Assembler, notifier external.Notifier, config Config, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		supervisor:   sup,
		notebooks:    notebooks,
		profiles:     profiles,
		working:      working,
		recent:       recent,
		archive:      archive,
		embedder:     embedder,
		chat:         chat,
		assembler:    assembler,
		notifier:     notifier,
		config:       config,
		logger:       logger,
		lastBriefing: time.Now(),
	}
}

// Start launches the background trigger goroutines. They run until ctx is
// cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	o.logger.Info("orchestrator starting")

	go o.runLoop(ctx, "collection", o.config.CollectionInterval, o.triggerCollection)
	go o.runLoop(ctx, "working-facts-compression", o.config.CompressionInterval, o.compressWorkingFacts)
	go o.runLoop(ctx, "archive-compression", o.config.CompressionInterval, o.compressArchive)
	go o.runLoop(ctx, "briefing", o.config.BriefingInterval, o.triggerBriefing)
}

func (o *Orchestrator) runLoop(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := fn(ctx); err != nil {
		o.logger.Warn("orchestrator initial run", "trigger", name, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator shutting down", "trigger", name)
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				o.logger.Warn("orchestrator trigger error", "trigger", name, "error", err)
			}
		}
	}
}

// triggerCollection runs the Supervisor's scheduled collection pass over
// every known notebook. collection_mode filtering happens inside
// OrchestrateCollection itself.
func (o *Orchestrator) triggerCollection(ctx context.Context) error {
	ids, err := o.notebooks.List(ctx)
	if err != nil {
		return fmt.Errorf("listing notebooks: %w", err)
	}
	results, err := o.supervisor.OrchestrateCollection(ctx, ids)
	if err != nil {
		return fmt.Errorf("orchestrating collection: %w", err)
	}
	o.logger.Info("orchestrator collection pass complete", "notebooks", len(results))
	return nil
}

// triggerBriefing assembles the periodic cross-notebook briefing and
// publishes it as a notification event. A nil assembler or notifier makes
// this a no-op: briefing generation is only meaningful once a consumer can
// receive it.
func (o *Orchestrator) triggerBriefing(ctx context.Context) error {
	if o.assembler == nil {
		return nil
	}
	since := o.lastBriefing
	briefing, err := o.assembler.Generate(ctx, since, "")
	if err != nil {
		return fmt.Errorf("generating briefing: %w", err)
	}
	o.lastBriefing = time.Now()

	if len(briefing.Notebooks) == 0 {
		return nil
	}
	o.logger.Info("orchestrator briefing generated", "notebooks", len(briefing.Notebooks))

	if o.notifier == nil {
		return nil
	}
	return o.notifier.Notify(ctx, external.Event{
		Type:      "briefing_ready",
		Data:      map[string]any{"narrative": briefing.Narrative, "notebooks": len(briefing.Notebooks)},
		Timestamp: briefing.GeneratedAt,
	})
}

// compressWorkingFacts moves lowest-importance/least-recent facts to the
// archive once the working tier exceeds its token budget. Idempotent: a
// tier already under budget is a no-op.
func (o *Orchestrator) compressWorkingFacts(ctx context.Context) error {
	spillovers, err := o.working.CompressIfOverBudget()
	if err != nil {
		return fmt.Errorf("compressing working facts: %w", err)
	}
	for _, sp := range spillovers {
		content := fmt.Sprintf("%s: %s", sp.Fact.Key, sp.Fact.Value)
		input := memory.ArchiveCreateInput{
			Content:     content,
			ContentType: "working_fact",
			Namespace:   memory.NamespaceSystem,
			Importance:  factImportanceScore(sp.Fact.Importance),
		}
		if o.embedder != nil {
			if emb, err := o.embedder.Embed(ctx, content); err == nil {
				input.Embedding = memory.NewEmbeddingVector(emb)
			} else {
				o.logger.Warn("orchestrator: embedding spilled fact failed", "key", sp.Fact.Key, "error", err)
			}
		}
		if _, err := o.archive.Write(ctx, input); err != nil {
			o.logger.Warn("orchestrator: archiving spilled fact failed", "key", sp.Fact.Key, "error", err)
		}
	}
	if len(spillovers) > 0 {
		o.logger.Info("orchestrator compressed working facts", "spilled", len(spillovers))
	}
	return nil
}

func factImportanceScore(i memory.Importance) float64 {
	switch i {
	case memory.ImportanceCritical:
		return 1.0
	case memory.ImportanceHigh:
		return 0.75
	case memory.ImportanceMedium:
		return 0.5
	default:
		return 0.25
	}
}

// compressArchive summarizes and archives a notebook's recent-exchanges
// tier once its unsummarized count exceeds UnsummarizedThreshold, then
// marks those exchanges summarized. Safe to retry: MarkSummarized only
// runs after a successful archive write, so a crash mid-pass just means
// the next pass re-summarizes the same backlog.
func (o *Orchestrator) compressArchive(ctx context.Context) error {
	ids, err := o.notebooks.List(ctx)
	if err != nil {
		return fmt.Errorf("listing notebooks: %w", err)
	}

	for _, notebookID := range ids {
		count, err := o.recent.UnsummarizedCount(ctx, notebookID)
		if err != nil {
			o.logger.Warn("orchestrator: checking unsummarized count failed", "notebook", notebookID, "error", err)
			continue
		}
		if count <= UnsummarizedThreshold {
			continue
		}
		if err := o.summarizeAndArchive(ctx, notebookID); err != nil {
			o.logger.Warn("orchestrator: archive compression failed", "notebook", notebookID, "error", err)
		}
	}
	return nil
}

const archiveCompressionFallback = "Conversation history summarized without a narrative model available."

func (o *Orchestrator) summarizeAndArchive(ctx context.Context, notebookID string) error {
	exchanges, err := o.recent.Since(ctx, notebookID, time.Time{})
	if err != nil {
		return fmt.Errorf("loading exchanges: %w", err)
	}

	var ids []int64
	var transcript string
	for _, ex := range exchanges {
		if ex.Summarized {
			continue
		}
		transcript += fmt.Sprintf("%s: %s\n", ex.Role, ex.Content)
		ids = append(ids, ex.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	summary := archiveCompressionFallback
	if o.chat != nil {
		resp, err := o.chat.Complete(ctx,
			"Summarize this conversation history into a concise paragraph capturing durable facts, decisions, and themes.",
			transcript, external.ChatOptions{Timeout: 30 * time.Second})
		if err == nil && resp != "" {
			summary = resp
		}
	}

	input := memory.ArchiveCreateInput{
		Content:          summary,
		ContentType:      "conversation_summary",
		SourceNotebookID: notebookID,
		Namespace:        memory.NamespaceSystem,
		Importance:       0.5,
	}
	if o.embedder != nil {
		if emb, err := o.embedder.Embed(ctx, summary); err == nil {
			input.Embedding = memory.NewEmbeddingVector(emb)
		} else {
			o.logger.Warn("orchestrator: embedding conversation summary failed", "notebook", notebookID, "error", err)
		}
	}
	if _, err := o.archive.Write(ctx, input); err != nil {
		return fmt.Errorf("archiving summary: %w", err)
	}

	if err := o.recent.MarkSummarized(ctx, ids); err != nil {
		return fmt.Errorf("marking exchanges summarized: %w", err)
	}
	o.logger.Info("orchestrator archived conversation summary", "notebook", notebookID, "exchanges", len(ids))
	return nil
}
