// Package briefings implements the Briefing Pipeline: per-notebook activity
// deltas gathered concurrently and assembled into a narrative summary.
package briefings

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/gatherer"
	"github.com/kestrelresearch/scout/internal/memory"
	"github.com/kestrelresearch/scout/internal/metrics"
	"github.com/kestrelresearch/scout/internal/notebook"
)

// Deps are the Assembler's injected collaborators.
type Deps struct {
	Profiles  *notebook.Store
	Gatherers *gatherer.Registry
	Sources   external.SourceStore
	Signals   *memory.Signals
	People    external.PersonTracker
	Notebooks external.NotebookStore
	Chat      external.ChatCompleter
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Assembler builds the periodic cross-notebook briefing.
type Assembler struct {
	deps Deps
}

// NewAssembler returns an Assembler bound to deps.
func NewAssembler(deps Deps) *Assembler {
	return &Assembler{deps: deps}
}

// Story is one recent item surfaced in a notebook's briefing section.
type Story struct {
	Title   string
	Source  string
	Summary string
}

// LibraryGrowth compares this week's and last week's item counts.
type LibraryGrowth struct {
	ThisWeek int
	LastWeek int
}

// ReadingProgress splits a notebook's items into summarized vs. unread.
type ReadingProgress struct {
	Summarized int
	Unread     int
}

// NotebookStats is one notebook's activity delta for a briefing window.
type NotebookStats struct {
	NotebookID        string
	NewItems          int
	PendingApprovals  int
	TopFinding        string
	RecentStories     []Story
	PersonChanges     []string
	UpcomingKeyDates  []string
	CollectionRuns    int
	LibraryGrowth     LibraryGrowth
	ReadingProgress   ReadingProgress
	HighlightCount    int
	UnfinishedThreads int
	EmergingTopics    []string
	OneWeekAgo        []string
}

// hasActivity reports whether a notebook had any signal worth including in
// the briefing at all.
func (n NotebookStats) hasActivity() bool {
	return n.NewItems > 0 || n.PendingApprovals > 0 || n.HighlightCount > 0 ||
		n.UnfinishedThreads > 0 || len(n.PersonChanges) > 0 || n.CollectionRuns > 0
}

// Briefing is the full assembled result.
type Briefing struct {
	GeneratedAt          time.Time
	Notebooks            []NotebookStats
	CrossNotebookInsight string
	Narrative            string
}

const (
	oneWeekAgoMinDays = 6
	oneWeekAgoMaxDays = 8
	keyDateWindow     = 7 * 24 * time.Hour
)

// Generate assembles the briefing for every notebook with activity since
// lastSeen. crossNotebookInsight, when non-empty, is attached verbatim —
// the Supervisor computes it separately via DiscoverCrossWorkspacePatterns
// so this package never needs to import the Supervisor.
func (a *Assembler) Generate(ctx context.Context, lastSeen time.Time, crossNotebookInsight string) (*Briefing, error) {
	ids, err := a.deps.Notebooks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing notebooks: %w", err)
	}

	stats := make([]NotebookStats, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := a.gatherNotebookStats(ctx, id, lastSeen)
			if err != nil {
				a.deps.Logger.Warn("briefings: gathering notebook stats failed", "notebook", id, "error", err)
				return
			}
			stats[i] = s
		}()
	}
	wg.Wait()

	var active []NotebookStats
	for _, s := range stats {
		if s.hasActivity() {
			active = append(active, s)
		}
	}

	briefing := &Briefing{
		GeneratedAt:          time.Now(),
		Notebooks:            active,
		CrossNotebookInsight: crossNotebookInsight,
	}
	briefing.Narrative = a.narrative(ctx, briefing)
	if a.deps.Metrics != nil {
		a.deps.Metrics.BriefingsSent.Inc()
	}
	return briefing, nil
}

// gatherNotebookStats gathers one notebook's full stat list from a single
// consistent snapshot of its sources and signals.
func (a *Assembler) gatherNotebookStats(ctx context.Context, notebookID string, lastSeen time.Time) (NotebookStats, error) {
	stats := NotebookStats{NotebookID: notebookID}

	if a.deps.Gatherers != nil {
		if g, err := a.deps.Gatherers.Get(notebookID); err == nil {
			if pending, err := g.GetPendingApprovals(); err == nil {
				stats.PendingApprovals = len(pending)
			}
			if runs, err := g.RunsSince(lastSeen); err == nil {
				stats.CollectionRuns = len(runs)
			}
		}
	}

	var sources []external.SourceRecord
	if a.deps.Sources != nil {
		listed, err := a.deps.Sources.List(ctx, notebookID)
		if err != nil {
			return stats, fmt.Errorf("listing sources: %w", err)
		}
		sources = listed
	}

	now := time.Now()
	weekAgo := now.Add(-7 * 24 * time.Hour)
	twoWeeksAgo := now.Add(-14 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)

	var thisWeekTitles, priorWindowTitles []string
	for _, src := range sources {
		if src.CreatedAt.After(lastSeen) {
			stats.NewItems++
			stats.RecentStories = append(stats.RecentStories, Story{
				Title:  src.Title,
				Source: src.URL,
			})
		}
		if src.CreatedAt.After(weekAgo) {
			stats.LibraryGrowth.ThisWeek++
			thisWeekTitles = append(thisWeekTitles, src.Title)
		} else if src.CreatedAt.After(twoWeeksAgo) {
			stats.LibraryGrowth.LastWeek++
		}
		if src.CreatedAt.After(monthAgo) && src.CreatedAt.Before(weekAgo) {
			priorWindowTitles = append(priorWindowTitles, src.Title)
		}
		age := now.Sub(src.CreatedAt)
		if age >= oneWeekAgoMinDays*24*time.Hour && age <= oneWeekAgoMaxDays*24*time.Hour {
			stats.OneWeekAgo = append(stats.OneWeekAgo, src.Title)
		}
		if src.Status == "completed" {
			stats.ReadingProgress.Summarized++
		} else {
			stats.ReadingProgress.Unread++
		}
	}
	if len(stats.RecentStories) > 0 {
		stats.TopFinding = stats.RecentStories[0].Title
	}
	stats.EmergingTopics = emergingTopics(thisWeekTitles, priorWindowTitles)

	if a.deps.Signals != nil {
		sigs, err := a.deps.Signals.Since(ctx, notebookID, lastSeen)
		if err == nil {
			for _, sig := range sigs {
				if sig.Type == collect.SignalContentHighlighted {
					stats.HighlightCount++
				}
			}
		}
	}

	if a.deps.People != nil {
		changes, err := a.deps.People.Changes(ctx, notebookID, lastSeen)
		if err == nil {
			for _, c := range changes {
				stats.PersonChanges = append(stats.PersonChanges, fmt.Sprintf("%s: %s", c.Name, c.Description))
			}
		}
	}

	if a.deps.Profiles != nil {
		if profile, err := a.deps.Profiles.Load(notebookID); err == nil {
			stats.UpcomingKeyDates = upcomingKeyDates(profile, now)
		}
	}

	return stats, nil
}

// emergingTopics returns words appearing at least twice in thisWeek and
// never in the prior window, after a stop-word filter.
func emergingTopics(thisWeek, priorWindow []string) []string {
	prior := make(map[string]bool)
	for _, t := range priorWindow {
		for _, w := range tokenize(t) {
			prior[w] = true
		}
	}
	counts := make(map[string]int)
	for _, t := range thisWeek {
		for _, w := range tokenize(t) {
			counts[w]++
		}
	}
	var emerging []string
	for w, c := range counts {
		if c >= 2 && !prior[w] {
			emerging = append(emerging, w)
		}
	}
	sort.Strings(emerging)
	return emerging
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "to": true, "in": true, "on": true,
	"for": true, "and": true, "or": true, "is": true, "are": true, "with": true, "how": true,
	"what": true, "why": true, "new": true, "this": true, "that": true, "it": true, "at": true,
	"as": true, "by": true, "from": true, "be": true, "was": true, "were": true,
}

func tokenize(title string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, `.,!?:;"'()[]`)
		if len(w) < 3 || stopWords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}

// upcomingKeyDates always returns nil: notebook.Profile has no structured
// date fields to read, so no upcoming dates within keyDateWindow are
// surfaced and the briefing's key-dates stat is always empty.
func upcomingKeyDates(profile notebook.Profile, now time.Time) []string {
	_ = keyDateWindow
	_ = profile
	_ = now
	return nil
}

const narrativeErrorSentinel = "UNAVAILABLE"

// narrative asks a chat-completion model for a concise markdown summary,
// falling back to a deterministic structured summary when the model is
// unavailable or returns the error sentinel.
func (a *Assembler) narrative(ctx context.Context, b *Briefing) string {
	if a.deps.Chat == nil || len(b.Notebooks) == 0 {
		return fallbackNarrative(b)
	}

	var sb strings.Builder
	for _, n := range b.Notebooks {
		fmt.Fprintf(&sb, "Notebook %s: %d new items, %d pending approvals, top finding %q, %d highlights, %d unfinished threads\n",
			n.NotebookID, n.NewItems, n.PendingApprovals, n.TopFinding, n.HighlightCount, n.UnfinishedThreads)
	}
	if b.CrossNotebookInsight != "" {
		fmt.Fprintf(&sb, "Cross-notebook insight: %s\n", b.CrossNotebookInsight)
	}

	system := fmt.Sprintf("You write a concise 200-400 word markdown research briefing with sections: lead, "+
		"per-notebook updates, research momentum, coming up, unfinished threads, emerging interests, "+
		"\"one week ago\", did-you-know (only if material is thin), suggested action. "+
		"If there is nothing worth reporting, respond with exactly %s.", narrativeErrorSentinel)
	resp, err := a.deps.Chat.Complete(ctx, system, sb.String(), external.ChatOptions{Timeout: 30 * time.Second})
	if err != nil || resp == "" || strings.TrimSpace(resp) == narrativeErrorSentinel {
		return fallbackNarrative(b)
	}
	return resp
}

// fallbackNarrative assembles a deterministic structured summary when the
// LLM narrative is unavailable.
func fallbackNarrative(b *Briefing) string {
	if len(b.Notebooks) == 0 {
		return "# Briefing\n\nNo notable activity since your last visit."
	}

	var sb strings.Builder
	sb.WriteString("# Briefing\n\n")
	for _, n := range b.Notebooks {
		fmt.Fprintf(&sb, "## %s\n", n.NotebookID)
		fmt.Fprintf(&sb, "- %d new item(s), %d pending approval(s)\n", n.NewItems, n.PendingApprovals)
		if n.TopFinding != "" {
			fmt.Fprintf(&sb, "- Top finding: %s\n", n.TopFinding)
		}
		if len(n.EmergingTopics) > 0 {
			fmt.Fprintf(&sb, "- Emerging topics: %s\n", strings.Join(n.EmergingTopics, ", "))
		}
		if len(n.OneWeekAgo) > 0 {
			fmt.Fprintf(&sb, "- One week ago: %s\n", strings.Join(n.OneWeekAgo, ", "))
		}
		sb.WriteString("\n")
	}
	if b.CrossNotebookInsight != "" {
		fmt.Fprintf(&sb, "## Across your notebooks\n%s\n", b.CrossNotebookInsight)
	}
	return sb.String()
}
