package notebook

import (
	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/fetcher"
)

// ToSourcesConfig converts a profile's free-form Sources list into the
// Unified Fetcher's typed SourcesConfig, interpreting each entry's Value map
// according to its Kind and dropping any entry matching DisabledSources.
func (p Profile) ToSourcesConfig() fetcher.SourcesConfig {
	disabled := make(map[string]bool, len(p.DisabledSources))
	for _, d := range p.DisabledSources {
		disabled[d] = true
	}

	cfg := make(fetcher.SourcesConfig)
	for _, entry := range p.Sources {
		kind := collect.SourceKind(entry.Kind)
		for _, e := range entriesFor(kind, entry.Value) {
			if disabled[entryIdentity(e)] {
				continue
			}
			cfg[kind] = append(cfg[kind], e)
		}
	}
	return cfg
}

// entryIdentity returns the string a disabled_sources entry names a source
// by — its URL for URL-addressed kinds, its query for keyword kinds, and
// its ticker for filings.
func entryIdentity(e fetcher.Entry) string {
	if e.Query != "" {
		return e.Query
	}
	if e.Filing.Ticker != "" {
		return e.Filing.Ticker
	}
	return e.URL
}

func entriesFor(kind collect.SourceKind, value map[string]any) []fetcher.Entry {
	switch kind {
	case collect.KindFeed, collect.KindWebPage, collect.KindVideoChannel:
		return urlEntries(kind, value)
	case collect.KindFiling:
		return filingEntries(value)
	case collect.KindVideoKeyword, collect.KindPaperQuery, collect.KindNewsKeyword:
		return queryEntries(kind, value)
	case collect.KindPaperCategory:
		return urlEntries(kind, value)
	default:
		return nil
	}
}

func urlEntries(kind collect.SourceKind, value map[string]any) []fetcher.Entry {
	var entries []fetcher.Entry
	for _, u := range stringList(value, "urls", "url") {
		entries = append(entries, fetcher.Entry{Kind: kind, URL: u})
	}
	return entries
}

func queryEntries(kind collect.SourceKind, value map[string]any) []fetcher.Entry {
	var entries []fetcher.Entry
	geo, _ := value["geo"].(string)
	for _, q := range stringList(value, "queries", "query") {
		entries = append(entries, fetcher.Entry{Kind: kind, Query: q, Geo: geo})
	}
	return entries
}

func filingEntries(value map[string]any) []fetcher.Entry {
	var entries []fetcher.Entry
	tickers := stringList(value, "tickers", "ticker")
	companyName, _ := value["company_name"].(string)
	var filingTypes []string
	if raw, ok := value["filing_types"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				filingTypes = append(filingTypes, s)
			}
		}
	}
	for _, t := range tickers {
		entries = append(entries, fetcher.Entry{
			Kind: collect.KindFiling,
			Filing: fetcher.FilingEntry{
				Ticker:      t,
				CompanyName: companyName,
				FilingTypes: filingTypes,
			},
		})
	}
	return entries
}

// stringList reads either a plural key (a YAML/JSON list) or a singular key
// (a single string) from a free-form value map, normalizing to a slice.
func stringList(value map[string]any, pluralKey, singularKey string) []string {
	if raw, ok := value[pluralKey].([]any); ok {
		var out []string
		for _, v := range raw {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s, ok := value[singularKey].(string); ok && s != "" {
		return []string{s}
	}
	return nil
}
