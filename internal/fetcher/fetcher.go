// Package fetcher implements the Unified Fetcher: a concurrent,
// per-source-kind fan-out that turns a sources config into a deduplicated
// list of FetchedItems.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/metrics"
)

// AdapterTimeout is the default per-adapter call budget.
const AdapterTimeout = 30 * time.Second

// Fetcher fans a SourcesConfig out across registered adapters.
type Fetcher struct {
	adapters map[collect.SourceKind]Adapter
	health   *HealthTracker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New returns a Fetcher with no adapters registered; call Register for
// each kind the caller wants served. m may be nil, in which case fetch
// timings are simply not recorded.
func New(health *HealthTracker, m *metrics.Metrics, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		adapters: make(map[collect.SourceKind]Adapter),
		health:   health,
		metrics:  m,
		logger:   logger,
	}
}

// Register installs an adapter for its declared kind.
func (f *Fetcher) Register(a Adapter) {
	f.adapters[a.Kind()] = a
}

// keywordFilterExempt lists the source kinds whose fetch is already a
// targeted search — a direct paper query or a single company's filings —
// where a secondary keyword filter would only discard relevant results the
// query itself guaranteed.
var keywordFilterExempt = map[collect.SourceKind]bool{
	collect.KindPaperQuery: true,
	collect.KindFiling:     true,
}

// matchesKeywords reports whether an item's title+content contains any of
// the given keywords, case-insensitively. An empty keyword list always
// matches (no filtering requested).
func matchesKeywords(title, content string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(title + " " + content)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// FetchAll invokes every configured (kind, entry) pair concurrently, each
// with its own adapter timeout, under the caller's overall deadline. A
// single adapter's failure never aborts the batch; on overall deadline
// expiry, FetchAll returns whatever arrived rather than erroring.
//
// keywords is a post-fetch content filter, not an additional search query:
// every fetched item is kept only if its title+content contains at least
// one keyword, except for kinds in keywordFilterExempt whose fetch is
// already a targeted query.
func (f *Fetcher) FetchAll(ctx context.Context, cfg SourcesConfig, keywords []string) ([]collect.FetchedItem, error) {
	type job struct {
		kind  collect.SourceKind
		entry Entry
	}
	var jobs []job
	for kind, entries := range cfg {
		for _, e := range entries {
			jobs = append(jobs, job{kind: kind, entry: e})
		}
	}

	results := make(chan []collect.FetchedItem, len(jobs))
	var wg sync.WaitGroup

	for _, j := range jobs {
		adapter, ok := f.adapters[j.kind]
		if !ok {
			f.logger.Warn("no adapter registered for source kind", "kind", j.kind)
			continue
		}

		wg.Add(1)
		go func(kind collect.SourceKind, entry Entry, adapter Adapter) {
			defer wg.Done()

			adapterCtx, cancel := context.WithTimeout(ctx, AdapterTimeout)
			defer cancel()

			start := time.Now()
			key := healthKey(kind, entry)
			var items []collect.FetchedItem
			err := f.health.Record(key, func() (int, error) {
				var fetchErr error
				items, fetchErr = adapter.Fetch(adapterCtx, entry)
				return len(items), fetchErr
			})
			if f.metrics != nil {
				f.metrics.FetchDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
			}

			if err != nil {
				f.logger.Warn("adapter fetch failed", "kind", kind, "key", key, "error", err)
				return
			}
			if len(items) > PerFeedEntryCap {
				items = items[:PerFeedEntryCap]
			}
			if !keywordFilterExempt[kind] && len(keywords) > 0 {
				filtered := items[:0]
				for _, it := range items {
					if matchesKeywords(it.Title, it.Content, keywords) {
						filtered = append(filtered, it)
					}
				}
				items = filtered
			}
			for i := range items {
				if items[i].ContentHash == "" {
					items[i].ContentHash = ContentHash(items[i].Title, items[i].Content)
				}
				items[i].HealthKey = key
				if items[i].Language == "" {
					items[i].Language = detectLanguage(items[i].Title + " " + items[i].Content)
				}
			}
			results <- items
		}(j.kind, j.entry, adapter)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[string]bool)
	var out []collect.FetchedItem

	for {
		select {
		case items, ok := <-results:
			if !ok {
				return out, nil
			}
			for _, it := range items {
				if seen[it.ContentHash] {
					continue
				}
				seen[it.ContentHash] = true
				out = append(out, it)
			}
		case <-ctx.Done():
			// Deadline expired: return what has arrived so far, never error.
			return out, nil
		}
	}
}

func healthKey(kind collect.SourceKind, e Entry) string {
	switch kind {
	case collect.KindFiling:
		return fmt.Sprintf("%s:%s", kind, e.Filing.Ticker)
	case collect.KindVideoKeyword, collect.KindPaperQuery, collect.KindNewsKeyword:
		return fmt.Sprintf("%s:%s", kind, e.Query)
	default:
		return fmt.Sprintf("%s:%s", kind, e.URL)
	}
}
