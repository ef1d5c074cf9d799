// Package httpfetch provides default HTTP-backed implementations of
// external.WebSearcher and external.WebScraper.
package httpfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kestrelresearch/scout/internal/external"
)

// Client is a small HTTP client bound to a search-provider base URL and
// API key, plus a plain scraper for arbitrary pages.
type Client struct {
	searchBaseURL string
	apiKey        string
	http          *http.Client
}

// New returns a Client. searchBaseURL points at a web-search provider's
// query endpoint (e.g. a SERP API).
func New(searchBaseURL, apiKey string) *Client {
	return &Client{
		searchBaseURL: searchBaseURL,
		apiKey:        apiKey,
		http:          &http.Client{Timeout: 10 * time.Second},
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

// Search queries the configured search provider.
func (c *Client) Search(ctx context.Context, query string, maxResults int, freshness string) ([]external.SearchResult, error) {
	u := fmt.Sprintf("%s?q=%s&limit=%d", c.searchBaseURL, url.QueryEscape(query), maxResults)
	if freshness != "" {
		u += "&freshness=" + url.QueryEscape(freshness)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling search provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	out := make([]external.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, external.SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return out, nil
}

var (
	titleTagPattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	tagPattern      = regexp.MustCompile(`(?is)<[^>]+>`)
)

// Scrape fetches a URL and strips markup down to readable text. This is a
// best-effort extractor, not a full readability implementation: it exists
// so the core has a working default without depending on a headless
// browser.
func (c *Client) Scrape(ctx context.Context, target string) (external.ScrapeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return external.ScrapeResult{}, fmt.Errorf("building scrape request: %w", err)
	}
	req.Header.Set("User-Agent", "scout-research-assistant/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return external.ScrapeResult{Success: false}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode >= 400 {
		return external.ScrapeResult{Success: false}, nil
	}

	html := string(body)
	title := ""
	if m := titleTagPattern.FindStringSubmatch(html); len(m) == 2 {
		title = strings.TrimSpace(m[1])
	}
	text := strings.TrimSpace(tagPattern.ReplaceAllString(html, " "))

	return external.ScrapeResult{Success: true, Title: title, Text: text}, nil
}
