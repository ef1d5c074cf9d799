package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kestrelresearch/scout/internal/collect"
)

// TickerResolver maps a ticker symbol to the regulator's internal entity
// ID (e.g. SEC's CIK). A ticker like "COST" must never be used as a
// full-text search term — it collides with the English word "cost" — so
// resolution always goes through this table first.
type TickerResolver interface {
	Resolve(ctx context.Context, ticker string) (entityID string, ok error)
}

// FilingAdapter implements the filing source kind: resolve ticker to
// entity ID, fetch via the per-entity submissions API, and fall back to a
// quoted company-name full-text search — never a bare-ticker search.
type FilingAdapter struct {
	client           *http.Client
	resolver         TickerResolver
	submissionsURLFn func(entityID string) string
	searchURLFn      func(quotedName string) string
	userAgent        string // regulators such as the SEC require a distinct, identifying UA
}

// NewFilingAdapter returns a FilingAdapter. submissionsURLFn and
// searchURLFn build the per-entity and full-text-search request URLs
// respectively, keeping the regulator's URL scheme out of this package.
func NewFilingAdapter(resolver TickerResolver, userAgent string, submissionsURLFn, searchURLFn func(string) string) *FilingAdapter {
	return &FilingAdapter{
		client:           newHTTPClient(),
		resolver:         resolver,
		submissionsURLFn: submissionsURLFn,
		searchURLFn:      searchURLFn,
		userAgent:        userAgent,
	}
}

func (a *FilingAdapter) Kind() collect.SourceKind { return collect.KindFiling }

func (a *FilingAdapter) Fetch(ctx context.Context, entry Entry) ([]collect.FetchedItem, error) {
	headers := map[string]string{"User-Agent": a.userAgent}

	entityID, resolveErr := a.resolver.Resolve(ctx, entry.Filing.Ticker)
	if resolveErr == nil && entityID != "" {
		body, err := get(ctx, a.client, a.submissionsURLFn(entityID), headers)
		if err == nil {
			return a.parseSubmissions(body, entry)
		}
	}

	// Ticker did not resolve (or the submissions fetch failed): fall back
	// to a full-text search quoted by company name, never the bare ticker.
	if entry.Filing.CompanyName == "" {
		return nil, fmt.Errorf("filing entry for %s has no company_name for quoted-search fallback", entry.Filing.Ticker)
	}
	quoted := fmt.Sprintf("%q", entry.Filing.CompanyName)
	body, err := get(ctx, a.client, a.searchURLFn(url.QueryEscape(quoted)), headers)
	if err != nil {
		return nil, fmt.Errorf("quoted-name filing search for %s: %w", entry.Filing.CompanyName, err)
	}
	return a.parseSearchResults(body, entry)
}

type submissionsResponse struct {
	Filings struct {
		Recent struct {
			Form          []string `json:"form"`
			FilingDate    []string `json:"filingDate"`
			PrimaryDocument []string `json:"primaryDocument"`
			AccessionNumber []string `json:"accessionNumber"`
		} `json:"recent"`
	} `json:"filings"`
}

func (a *FilingAdapter) parseSubmissions(body []byte, entry Entry) ([]collect.FetchedItem, error) {
	var resp submissionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing submissions response: %w", err)
	}

	wanted := make(map[string]bool)
	for _, t := range entry.Filing.FilingTypes {
		wanted[t] = true
	}

	var items []collect.FetchedItem
	recent := resp.Filings.Recent
	for i := range recent.Form {
		if len(wanted) > 0 && !wanted[recent.Form[i]] {
			continue
		}
		items = append(items, collect.FetchedItem{
			Title:      fmt.Sprintf("%s %s filing", entry.Filing.CompanyName, recent.Form[i]),
			SourceKind: collect.KindFiling,
			SourceName: entry.Filing.CompanyName,
			Metadata: map[string]string{
				"form":             recent.Form[i],
				"accession_number": safeIndex(recent.AccessionNumber, i),
			},
		})
	}
	return items, nil
}

type searchResultsResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				DisplayNames []string `json:"display_names"`
				FileType     string   `json:"file_type"`
				FileDate     string   `json:"file_date"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (a *FilingAdapter) parseSearchResults(body []byte, entry Entry) ([]collect.FetchedItem, error) {
	var resp searchResultsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing filing search response: %w", err)
	}
	var items []collect.FetchedItem
	for _, h := range resp.Hits.Hits {
		items = append(items, collect.FetchedItem{
			Title:      fmt.Sprintf("%s %s filing", entry.Filing.CompanyName, h.Source.FileType),
			SourceKind: collect.KindFiling,
			SourceName: entry.Filing.CompanyName,
		})
	}
	return items, nil
}

func safeIndex(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}
