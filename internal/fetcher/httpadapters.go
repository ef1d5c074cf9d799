package fetcher

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kestrelresearch/scout/internal/collect"
)

const userAgent = "scout-research-assistant/1.0 (+https://github.com/kestrelresearch/scout)"

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: AdapterTimeout}
}

func get(ctx context.Context, client *http.Client, rawURL string, extraHeaders map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// rssFeed is a minimal RSS 2.0 / Atom-compatible envelope — enough
// structure to pull title/link/description/pubDate per entry without
// depending on a full feed-parsing library.
type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
	Entries []rssItem `xml:"entry"` // Atom
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Summary     string `xml:"summary"`
	PubDate     string `xml:"pubDate"`
}

func parseFeed(body []byte, sourceURL string) ([]collect.FetchedItem, error) {
	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	entries := feed.Channel.Items
	if len(entries) == 0 {
		entries = feed.Entries
	}

	items := make([]collect.FetchedItem, 0, len(entries))
	for _, e := range entries {
		content := e.Description
		if content == "" {
			content = e.Summary
		}
		items = append(items, collect.FetchedItem{
			Title:      strings.TrimSpace(e.Title),
			URL:        strings.TrimSpace(e.Link),
			Content:    content,
			Summary:    content,
			SourceKind: collect.KindFeed,
			SourceURL:  sourceURL,
		})
	}
	return items, nil
}

// FeedAdapter fetches RSS/Atom feeds.
type FeedAdapter struct{ client *http.Client }

func NewFeedAdapter() *FeedAdapter { return &FeedAdapter{client: newHTTPClient()} }

func (a *FeedAdapter) Kind() collect.SourceKind { return collect.KindFeed }

func (a *FeedAdapter) Fetch(ctx context.Context, entry Entry) ([]collect.FetchedItem, error) {
	body, err := get(ctx, a.client, entry.URL, nil)
	if err != nil {
		return nil, err
	}
	return parseFeed(body, entry.URL)
}

// WebPageAdapter fetches a single web page and treats its full body as
// content, with the URL as title; no title/text extraction happens here.
// The injected external.WebScraper is only used at approval time, to enrich
// items with short content.
type WebPageAdapter struct{ client *http.Client }

func NewWebPageAdapter() *WebPageAdapter { return &WebPageAdapter{client: newHTTPClient()} }

func (a *WebPageAdapter) Kind() collect.SourceKind { return collect.KindWebPage }

func (a *WebPageAdapter) Fetch(ctx context.Context, entry Entry) ([]collect.FetchedItem, error) {
	body, err := get(ctx, a.client, entry.URL, nil)
	if err != nil {
		return nil, err
	}
	return []collect.FetchedItem{{
		Title:      entry.URL,
		URL:        entry.URL,
		Content:    string(body),
		SourceKind: collect.KindWebPage,
		SourceURL:  entry.URL,
	}}, nil
}

// VideoAdapter serves both video_channel (a channel feed URL) and
// video_keyword (a search term) by delegating to the feed fetcher or a
// keyword-routed search query respectively.
type VideoAdapter struct {
	client        *http.Client
	searchBaseURL string // keyword search endpoint, e.g. a video platform's feed-by-search URL
	kind          collect.SourceKind
}

func NewVideoChannelAdapter() *VideoAdapter {
	return &VideoAdapter{client: newHTTPClient(), kind: collect.KindVideoChannel}
}

func NewVideoKeywordAdapter(searchBaseURL string) *VideoAdapter {
	return &VideoAdapter{client: newHTTPClient(), searchBaseURL: searchBaseURL, kind: collect.KindVideoKeyword}
}

func (a *VideoAdapter) Kind() collect.SourceKind { return a.kind }

func (a *VideoAdapter) Fetch(ctx context.Context, entry Entry) ([]collect.FetchedItem, error) {
	target := entry.URL
	if a.kind == collect.KindVideoKeyword {
		target = a.searchBaseURL + url.QueryEscape(entry.Query)
	}
	body, err := get(ctx, a.client, target, nil)
	if err != nil {
		return nil, err
	}
	items, err := parseFeed(body, target)
	for i := range items {
		items[i].SourceKind = a.kind
	}
	return items, err
}

// PaperAdapter serves paper_category (a topical feed) and paper_query (a
// direct search query) against an academic paper aggregator's Atom feed.
type PaperAdapter struct {
	client  *http.Client
	baseURL string
	kind    collect.SourceKind
}

func NewPaperCategoryAdapter(baseURL string) *PaperAdapter {
	return &PaperAdapter{client: newHTTPClient(), baseURL: baseURL, kind: collect.KindPaperCategory}
}

func NewPaperQueryAdapter(baseURL string) *PaperAdapter {
	return &PaperAdapter{client: newHTTPClient(), baseURL: baseURL, kind: collect.KindPaperQuery}
}

func (a *PaperAdapter) Kind() collect.SourceKind { return a.kind }

func (a *PaperAdapter) Fetch(ctx context.Context, entry Entry) ([]collect.FetchedItem, error) {
	q := entry.Query
	if a.kind == collect.KindPaperCategory {
		q = "cat:" + entry.Query
	}
	target := a.baseURL + url.QueryEscape(q)
	body, err := get(ctx, a.client, target, nil)
	if err != nil {
		return nil, err
	}
	items, err := parseFeed(body, target)
	for i := range items {
		items[i].SourceKind = a.kind
	}
	return items, err
}

// NewsKeywordAdapter routes keyword strings to a news-aggregator feed, with
// optional geo targeting.
type NewsKeywordAdapter struct {
	client  *http.Client
	baseURL string
}

func NewNewsKeywordAdapter(baseURL string) *NewsKeywordAdapter {
	return &NewsKeywordAdapter{client: newHTTPClient(), baseURL: baseURL}
}

func (a *NewsKeywordAdapter) Kind() collect.SourceKind { return collect.KindNewsKeyword }

func (a *NewsKeywordAdapter) Fetch(ctx context.Context, entry Entry) ([]collect.FetchedItem, error) {
	target := a.baseURL + url.QueryEscape(entry.Query)
	if entry.Geo != "" {
		target += "&gl=" + url.QueryEscape(entry.Geo)
	}
	body, err := get(ctx, a.client, target, nil)
	if err != nil {
		return nil, err
	}
	items, err := parseFeed(body, target)
	for i := range items {
		items[i].SourceKind = collect.KindNewsKeyword
	}
	return items, err
}
