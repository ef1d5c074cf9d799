// Package supervisor implements the global overseer agent: task issuance,
// editorial judgment, cross-notebook synthesis, and conversational/overwatch
// surfaces. Briefings are assembled by internal/briefings, not here.
package supervisor

import (
	"context"
	"log/slog"

	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/gatherer"
	"github.com/kestrelresearch/scout/internal/memory"
	"github.com/kestrelresearch/scout/internal/metrics"
	"github.com/kestrelresearch/scout/internal/notebook"
	"github.com/kestrelresearch/scout/internal/preferences"
)

// Deps are the Supervisor's injected collaborators.
type Deps struct {
	Profiles  *notebook.Store
	Gatherers *gatherer.Registry
	Archive   *memory.Archive
	Signals   *memory.Signals
	Learner   *preferences.Learner
	Embedder  external.Embedder
	Chat      external.ChatCompleter
	Search    external.WebSearcher
	Scraper   external.WebScraper
	Notebooks external.NotebookStore
	Sources   external.SourceStore
	Notifier  external.Notifier
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Supervisor is the stateless global overseer: all durable state lives in
// the stores reached through Deps.
type Supervisor struct {
	deps Deps
}

// New returns a Supervisor bound to deps.
func New(deps Deps) *Supervisor {
	return &Supervisor{deps: deps}
}

// GetLearnedPreferences returns the notebook's current preference profile.
func (s *Supervisor) GetLearnedPreferences(ctx context.Context, notebookID string) (preferences.Preferences, error) {
	if s.deps.Learner == nil {
		return preferences.Preferences{}, nil
	}
	return s.deps.Learner.Aggregate(ctx, notebookID)
}
