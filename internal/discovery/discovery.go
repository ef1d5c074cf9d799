// Package discovery implements Source Discovery: turning a notebook's
// research intent into a ranked list of candidate sources via a two-stage
// chat-completion + web-search pipeline.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kestrelresearch/scout/internal/external"
)

// Purpose classifies what a notebook is for, driving which discovery
// queries are dispatched.
type Purpose string

const (
	PurposeCompanyResearch    Purpose = "company_research"
	PurposeTopicResearch      Purpose = "topic_research"
	PurposeProductResearch    Purpose = "product_research"
	PurposeSkillDevelopment   Purpose = "skill_development"
	PurposePersonTracking     Purpose = "person_tracking"
	PurposeIndustryMonitoring Purpose = "industry_monitoring"
	PurposeProjectKnowledge   Purpose = "project_knowledge"
	PurposePersonalInterests  Purpose = "personal_interests"
)

// TimeSensitivity classifies how quickly new material on the topic goes
// stale.
type TimeSensitivity string

const (
	SensitivityBreaking TimeSensitivity = "breaking"
	SensitivityDaily    TimeSensitivity = "daily"
	SensitivityWeekly   TimeSensitivity = "weekly"
	SensitivityNormal   TimeSensitivity = "normal"
	SensitivityArchival TimeSensitivity = "archival"
)

// Depth is the desired research thoroughness.
type Depth string

const (
	DepthSurface  Depth = "surface"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// Analysis is the result of classifying a notebook's intent.
type Analysis struct {
	Purpose           Purpose
	PrimaryTopic      string
	Entities          []string
	Industry          string
	Competitors       []string
	Keywords          []string
	GeographicFocus   string
	TimeSensitivity   TimeSensitivity
	Depth             Depth
	Ticker            string
	PrivatelyHeld     bool
	NeedsClarification bool
}

// Source is one ranked discovery candidate.
type Source struct {
	Kind        string
	Value       map[string]any
	Reason      string
	Confidence  float64
	AutoApprove bool
}

// Result is the full discovery outcome.
type Result struct {
	Analysis Analysis
	Sources  []Source
	Errors   []string
}

// Deps are discovery's injected collaborators.
type Deps struct {
	Chat   external.ChatCompleter
	Search external.WebSearcher
	Logger *slog.Logger
}

// Discovery turns notebook intent into candidate sources.
type Discovery struct {
	deps Deps
}

// New returns a Discovery bound to deps.
func New(deps Deps) *Discovery {
	return &Discovery{deps: deps}
}

const perQueryTimeout = 15 * time.Second

// Discover runs intent analysis followed by purpose-dispatched source
// discovery. subject, existingURLs, purposeOverride, and entityDetails are
// all optional refinements.
func (d *Discovery) Discover(ctx context.Context, intent string, focusAreas []string, subject, purposeOverride string, existingURLs []string, entityDetails map[string]string) Result {
	var result Result

	analysis := d.analyzeIntent(ctx, intent, focusAreas, entityDetails)
	if subject != "" {
		analysis.PrimaryTopic = subject
	}
	if purposeOverride != "" {
		analysis.Purpose = Purpose(purposeOverride)
	}
	if analysis.Purpose == PurposeCompanyResearch && analysis.Ticker == "" {
		d.enrichCompanyTicker(ctx, &analysis)
	}
	result.Analysis = analysis

	sources, errs := d.dispatch(ctx, analysis)
	result.Errors = errs

	if len(existingURLs) > 0 {
		sources = append(sources, seedSourcesFromExisting(existingURLs)...)
	}

	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].AutoApprove != sources[j].AutoApprove {
			return sources[i].AutoApprove
		}
		return sources[i].Confidence > sources[j].Confidence
	})
	result.Sources = sources
	return result
}

// analyzeIntent asks the chat-completion model to classify the notebook's
// purpose and extract entities/keywords; a parse failure degrades to a
// conservative topic_research classification rather than aborting.
func (d *Discovery) analyzeIntent(ctx context.Context, intent string, focusAreas []string, entityDetails map[string]string) Analysis {
	analysis := Analysis{
		Purpose:         PurposeTopicResearch,
		PrimaryTopic:    intent,
		Keywords:        focusAreas,
		TimeSensitivity: SensitivityNormal,
		Depth:           DepthStandard,
	}
	if d.deps.Chat == nil {
		return analysis
	}

	system := "Classify a research notebook's purpose. Respond with a short comma-separated list: " +
		"purpose (one of company_research, topic_research, product_research, skill_development, person_tracking, " +
		"industry_monitoring, project_knowledge, personal_interests), primary topic, time sensitivity " +
		"(breaking, daily, weekly, normal, archival), depth (surface, standard, deep)."
	var details strings.Builder
	for k, v := range entityDetails {
		fmt.Fprintf(&details, "%s: %s\n", k, v)
	}
	prompt := fmt.Sprintf("Intent: %s\nFocus areas: %s\n%s", intent, strings.Join(focusAreas, ", "), details.String())

	resp, err := d.deps.Chat.Complete(ctx, system, prompt, external.ChatOptions{Timeout: perQueryTimeout})
	if err != nil || resp == "" {
		return analysis
	}
	parts := strings.Split(resp, ",")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
		analysis.Purpose = Purpose(strings.TrimSpace(strings.ToLower(parts[0])))
	}
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		analysis.PrimaryTopic = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		analysis.TimeSensitivity = TimeSensitivity(strings.TrimSpace(strings.ToLower(parts[2])))
	}
	if len(parts) > 3 && strings.TrimSpace(parts[3]) != "" {
		analysis.Depth = Depth(strings.TrimSpace(strings.ToLower(parts[3])))
	}
	return analysis
}

// enrichCompanyTicker looks up a missing ticker via web search for
// company_research notebooks; if the entity can't be identified, it sets
// NeedsClarification rather than guessing.
func (d *Discovery) enrichCompanyTicker(ctx context.Context, analysis *Analysis) {
	if d.deps.Search == nil {
		analysis.NeedsClarification = true
		return
	}
	results, err := d.deps.Search.Search(ctx, analysis.PrimaryTopic+" stock ticker symbol", 5, "")
	if err != nil || len(results) == 0 {
		analysis.NeedsClarification = true
		return
	}
	ticker := extractTicker(results[0].Title + " " + results[0].Snippet)
	if ticker == "" {
		analysis.PrivatelyHeld = true
		return
	}
	analysis.Ticker = ticker
}

func extractTicker(text string) string {
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, "()[]:.,")
		if len(word) >= 2 && len(word) <= 5 && word == strings.ToUpper(word) && isAlpha(word) {
			return word
		}
	}
	return ""
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// dispatch runs the purpose-specific query set in parallel and ranks the
// aggregate results.
func (d *Discovery) dispatch(ctx context.Context, analysis Analysis) ([]Source, []string) {
	queries := buildQueries(analysis)
	if d.deps.Search == nil {
		return fallbackSources(analysis), []string{"web search unavailable, using deterministic fallback"}
	}

	type queryResult struct {
		query   string
		results []external.SearchResult
		err     error
	}
	out := make([]queryResult, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		i, q := i, q
		wg.Add(1)
		go func() {
			defer wg.Done()
			qctx, cancel := context.WithTimeout(ctx, perQueryTimeout)
			defer cancel()
			results, err := d.deps.Search.Search(qctx, q.text, 8, freshnessFor(analysis.TimeSensitivity))
			out[i] = queryResult{query: q.text, results: results, err: err}
		}()
	}
	wg.Wait()

	var errs []string
	var sources []Source
	for i, qr := range out {
		if qr.err != nil {
			errs = append(errs, fmt.Sprintf("query %q: %v", qr.query, qr.err))
			continue
		}
		sources = append(sources, d.rank(ctx, queries[i], qr.results)...)
	}
	if len(sources) == 0 {
		sources = fallbackSources(analysis)
		errs = append(errs, "no search results returned, using deterministic fallback")
	}
	return sources, errs
}

type query struct {
	text string
	kind string
}

// buildQueries assembles the purpose-dispatched query set, always
// overlaying news, video-keyword, and community queries, plus podcast and
// newsletter queries for research-oriented purposes.
func buildQueries(a Analysis) []query {
	topic := a.PrimaryTopic
	queries := []query{
		{text: topic + " news", kind: "news_keyword"},
		{text: topic + " video", kind: "video_keyword"},
		{text: topic + " community forum discussion", kind: "web_page"},
	}
	switch a.Purpose {
	case PurposeTopicResearch, PurposeSkillDevelopment, PurposeIndustryMonitoring:
		queries = append(queries,
			query{text: topic + " podcast", kind: "web_page"},
			query{text: topic + " newsletter", kind: "web_page"},
		)
	}
	switch a.Purpose {
	case PurposeCompanyResearch:
		queries = append(queries, query{text: topic + " investor relations filings", kind: "filing"})
	case PurposeIndustryMonitoring:
		queries = append(queries, query{text: topic + " industry report", kind: "web_page"})
	case PurposePersonTracking:
		queries = append(queries, query{text: topic + " interview profile", kind: "web_page"})
	}
	return queries
}

func freshnessFor(ts TimeSensitivity) string {
	switch ts {
	case SensitivityBreaking:
		return "day"
	case SensitivityDaily:
		return "week"
	case SensitivityWeekly:
		return "month"
	default:
		return ""
	}
}

const autoApproveThreshold = 0.85

// rank asks the chat-completion model to score and categorize one query's
// snippets; on failure it degrades to a flat mid-confidence suggestion for
// every hit rather than dropping the query's results.
func (d *Discovery) rank(ctx context.Context, q query, results []external.SearchResult) []Source {
	if len(results) == 0 {
		return nil
	}
	var sources []Source
	for _, r := range results {
		conf := 0.6
		if d.deps.Chat != nil {
			system := "Rate how valuable this source would be as an ongoing research feed, from 0 to 1. Respond with only the number."
			prompt := fmt.Sprintf("Title: %s\nURL: %s\nSnippet: %s", r.Title, r.URL, r.Snippet)
			if resp, err := d.deps.Chat.Complete(ctx, system, prompt, external.ChatOptions{Timeout: perQueryTimeout}); err == nil && resp != "" {
				if v, ok := parseConfidence(resp); ok {
					conf = v
				}
			}
		}
		sources = append(sources, Source{
			Kind:        q.kind,
			Value:       map[string]any{"url": r.URL, "query": q.text},
			Reason:      r.Snippet,
			Confidence:  conf,
			AutoApprove: conf >= autoApproveThreshold,
		})
	}
	return sources
}

func parseConfidence(s string) (float64, bool) {
	var v float64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &v); err != nil {
		return 0, false
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v, true
}

// fallbackSources is the deterministic set used when web search is
// unavailable: news-keyword feeds, video-keyword, and a paper category for
// research-ish topics.
func fallbackSources(a Analysis) []Source {
	sources := []Source{
		{Kind: "news_keyword", Value: map[string]any{"query": a.PrimaryTopic}, Reason: "deterministic fallback", Confidence: 0.5},
		{Kind: "video_keyword", Value: map[string]any{"query": a.PrimaryTopic}, Reason: "deterministic fallback", Confidence: 0.5},
	}
	switch a.Purpose {
	case PurposeTopicResearch, PurposeSkillDevelopment, PurposeIndustryMonitoring, PurposeProjectKnowledge:
		sources = append(sources, Source{
			Kind: "paper_category", Value: map[string]any{"query": a.PrimaryTopic}, Reason: "deterministic fallback", Confidence: 0.5,
		})
	}
	return sources
}

// seedSourcesFromExisting extracts recurring domains from a notebook's
// already-approved URLs and emits them as high-confidence seed sources.
func seedSourcesFromExisting(existingURLs []string) []Source {
	counts := make(map[string]int)
	for _, raw := range existingURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		counts[strings.TrimPrefix(u.Host, "www.")]++
	}
	var sources []Source
	for domain, count := range counts {
		if count < 2 {
			continue
		}
		sources = append(sources, Source{
			Kind:        "web_page",
			Value:       map[string]any{"url": "https://" + domain},
			Reason:      fmt.Sprintf("seeded from %d existing sources on this domain", count),
			Confidence:  0.8,
			AutoApprove: false,
		})
	}
	return sources
}
