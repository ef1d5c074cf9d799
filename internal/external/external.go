// Package external declares the capability contracts the core consumes
// from collaborators it does not own: embeddings, chat completion, web
// search/scrape, RAG ingestion, and the external source/notebook stores.
// The core only ever depends on these interfaces.
package external

import (
	"context"
	"time"
)

// Embedder produces a fixed-dimension embedding for a piece of text.
// Implementations are expected to be deterministic per input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Dimensions is the vector width the archive tier's pgvector column is
// sized for.
const Dimensions = 1024

// ChatCompleter is a best-effort text-completion capability. The core
// treats it as blocking from its own point of view and tolerates empty or
// error responses — a chat-completion failure degrades a feature, it never
// aborts a pipeline.
type ChatCompleter interface {
	Complete(ctx context.Context, system, prompt string, opts ChatOptions) (string, error)
}

// ChatOptions configures one chat-completion call.
type ChatOptions struct {
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// SearchResult is one hit from a web search.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// WebSearcher runs a web search, optionally biased toward a freshness
// window (e.g. "week", "month").
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int, freshness string) ([]SearchResult, error)
}

// ScrapeResult is the outcome of fetching and extracting a single page.
type ScrapeResult struct {
	Success bool
	Title   string
	Text    string
}

// WebScraper fetches a URL and extracts its readable text.
type WebScraper interface {
	Scrape(ctx context.Context, url string) (ScrapeResult, error)
}

// RAGIngestor hands approved content to the document ingestion/chunking
// pipeline, returning the chunk count produced.
type RAGIngestor interface {
	Ingest(ctx context.Context, notebookID, sourceID, text, filename, sourceType string) (chunks int, err error)
}

// SourceRecord is the external source store's view of one approved item.
type SourceRecord struct {
	ID         string
	NotebookID string
	Title      string
	URL        string
	Status     string // processing, completed, failed
	Tags       []string
	CreatedAt  time.Time

	// Content is the approved item's ingested text, truncated by the store
	// to whatever prefix it chooses to retain. Consumed by the Gatherer's
	// coverage-gap analysis, which scans existing sources for focus-area
	// mentions before assembling a collection task's search keywords.
	Content string
}

// SourceStore is the external persistent store of approved sources.
type SourceStore interface {
	Create(ctx context.Context, rec SourceRecord) (SourceRecord, error)
	Update(ctx context.Context, rec SourceRecord) error
	List(ctx context.Context, notebookID string) ([]SourceRecord, error)
	ListAll(ctx context.Context) ([]SourceRecord, error)
	Get(ctx context.Context, id string) (SourceRecord, error)
	Delete(ctx context.Context, id string) error
	SetTags(ctx context.Context, id string, tags []string) error
}

// NotebookStore enumerates workspaces known to the rest of the system.
type NotebookStore interface {
	List(ctx context.Context) ([]string, error)
}

// Event is the payload fanned out by Notifier.
type Event struct {
	Type       string
	NotebookID string
	Data       map[string]any
	Timestamp  time.Time
}

// Notifier fans out a completion/update event to a UI channel. Failure is
// always non-fatal to the operation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// PersonChange is one tracked change to a person of interest, surfaced by
// the external people-tracking module.
type PersonChange struct {
	Name        string
	Description string
	Timestamp   time.Time
}

// PersonTracker reports changes to tracked people for a notebook. The core
// does not own person identity or change detection; it only consumes a
// feed of what changed.
type PersonTracker interface {
	Changes(ctx context.Context, notebookID string, since time.Time) ([]PersonChange, error)
}
