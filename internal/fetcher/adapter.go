package fetcher

import (
	"context"

	"github.com/kestrelresearch/scout/internal/collect"
)

// FilingEntry is the filing-kind source config: a ticker plus optional
// company name and filing-type filter.
type FilingEntry struct {
	Ticker      string
	CompanyName string
	FilingTypes []string
}

// Entry is one configured source-kind entry. Only the fields relevant to
// the entry's Kind are populated by the caller.
type Entry struct {
	Kind   collect.SourceKind
	URL    string      // feed, web_page, video_channel
	Filing FilingEntry // filing
	Query  string      // video_keyword, paper_query, news_keyword
	Geo    string       // news_keyword geo targeting
}

// SourcesConfig is a mapping keyed by source-kind, each with its own list
// of kind-specific entries — the Unified Fetcher's single input shape for
// "sources_config".
type SourcesConfig map[collect.SourceKind][]Entry

// Adapter fetches items for one source kind. A single adapter instance is
// invoked once per configured entry of its kind.
type Adapter interface {
	Kind() collect.SourceKind
	Fetch(ctx context.Context, entry Entry) ([]collect.FetchedItem, error)
}

// PerFeedEntryCap bounds how many items a single (kind, entry) fetch may
// contribute before dedup, preventing one noisy feed from crowding out
// everything else.
const PerFeedEntryCap = 20
