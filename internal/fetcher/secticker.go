package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// SECTickerResolver resolves a ticker symbol to its SEC CIK (padded to 10
// digits, as the submissions API requires) via the public
// company_tickers.json table. Results are cached for the process lifetime
// since the table changes rarely and every resolution would otherwise cost
// a full-table fetch.
type SECTickerResolver struct {
	tableURL string

	mu    sync.Mutex
	table map[string]string // upper-case ticker -> zero-padded CIK
}

// NewSECTickerResolver returns a resolver against the SEC's public ticker
// table at tableURL (typically https://www.sec.gov/files/company_tickers.json).
func NewSECTickerResolver(tableURL string) *SECTickerResolver {
	return &SECTickerResolver{tableURL: tableURL}
}

type secTickerEntry struct {
	CIKStr int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Resolve returns the zero-padded CIK for ticker, loading and caching the
// full table on first use.
func (r *SECTickerResolver) Resolve(ctx context.Context, ticker string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.table == nil {
		if err := r.load(ctx); err != nil {
			return "", err
		}
	}

	cik, ok := r.table[strings.ToUpper(ticker)]
	if !ok {
		return "", fmt.Errorf("ticker %q not found in SEC ticker table", ticker)
	}
	return cik, nil
}

func (r *SECTickerResolver) load(ctx context.Context) error {
	body, err := get(ctx, newHTTPClient(), r.tableURL, nil)
	if err != nil {
		return fmt.Errorf("fetching ticker table: %w", err)
	}

	var raw map[string]secTickerEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("parsing ticker table: %w", err)
	}

	table := make(map[string]string, len(raw))
	for _, e := range raw {
		table[strings.ToUpper(e.Ticker)] = fmt.Sprintf("%010s", strconv.Itoa(e.CIKStr))
	}
	r.table = table
	return nil
}
