package gatherer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/notebook"
	"github.com/kestrelresearch/scout/internal/preferences"
)

// ScoreItem scores a single fetched item as though it had arrived through
// the normal pipeline, including contextualization against the notebook's
// own archive. Used for user-submitted content, which skips dedup (the
// user asked for this item specifically) but not scoring.
func (g *Gatherer) ScoreItem(ctx context.Context, fi collect.FetchedItem) (collect.CollectedItem, error) {
	profile, err := g.deps.Profiles.Load(g.notebookID)
	if err != nil {
		return collect.CollectedItem{}, fmt.Errorf("loading profile for %s: %w", g.notebookID, err)
	}
	guidance, _ := g.deps.Profiles.Guidance(g.notebookID)

	item := collect.CollectedItem{
		ID:          fi.ContentHash,
		Title:       fi.Title,
		URL:         fi.URL,
		Content:     fi.Content,
		Preview:     fi.Content,
		SourceName:  fi.SourceName,
		SourceKind:  fi.SourceKind,
		CollectedAt: time.Now(),
		ContentHash: fi.ContentHash,
		Status:      collect.StatusPending,
	}
	if len(item.Preview) > 240 {
		item.Preview = item.Preview[:240]
	}

	sc := scoringContext{profile: profile, guidance: guidance}
	if g.deps.Health != nil {
		sc.health = g.deps.Health.Get(string(fi.SourceKind) + ":" + fi.SourceURL)
	}
	if g.deps.Learner != nil {
		if prefs, err := g.deps.Learner.Aggregate(ctx, g.notebookID); err == nil {
			sc.prefs = prefs
		}
	}
	g.calculateConfidence(ctx, &item, sc)
	g.contextualize(ctx, &item)
	return item, nil
}

// scoringContext bundles the inputs calculateConfidence needs, so the
// function itself stays a pure-ish computation over explicit arguments.
type scoringContext struct {
	profile  notebook.Profile
	guidance string
	health   collect.SourceHealthRecord
	prefs    preferences.Preferences
}

// calculateConfidence computes relevance x0.5 + trust x0.3 + freshness x0.2
// plus a learned bonus, clamped to [0,1], with the freshness=0 override
// clamping to <=0.35.
func (g *Gatherer) calculateConfidence(ctx context.Context, item *collect.CollectedItem, sc scoringContext) {
	relevance := g.scoreRelevance(ctx, item, sc)
	trust := sc.health.Trust()
	freshness := scoreFreshness(item, sc.profile.Filters.MaxAgeDays)
	bonus, reasons := learnedBonus(item, sc.prefs)

	overall := 0.5*relevance + 0.3*trust + 0.2*freshness + bonus
	if overall < 0 {
		overall = 0
	}
	if overall > 1 {
		overall = 1
	}
	if freshness == 0 && overall > 0.35 {
		overall = 0.35
	}

	item.RelevanceScore = relevance
	item.SourceTrust = trust
	item.FreshnessScore = freshness
	item.OverallConfidence = overall
	item.ConfidenceReasons = append([]string{
		fmt.Sprintf("relevance %.2f", relevance),
		fmt.Sprintf("source trust %.2f (%s)", trust, sc.health.Health),
		fmt.Sprintf("freshness %.2f", freshness),
	}, reasons...)

	if sc.profile.Filters.MinRelevance > 0 && relevance < sc.profile.Filters.MinRelevance {
		item.OverallConfidence = 0
		item.ConfidenceReasons = append(item.ConfidenceReasons,
			fmt.Sprintf("relevance %.2f below notebook minimum %.2f", relevance, sc.profile.Filters.MinRelevance))
	}
}

// scoreRelevance asks the chat-completion capability to rate 0-1 given the
// notebook's focus/intent and optional notebook.md guidance. A
// non-numeric or error response degrades to a conservative midpoint
// rather than aborting scoring.
func (g *Gatherer) scoreRelevance(ctx context.Context, item *collect.CollectedItem, sc scoringContext) float64 {
	if g.deps.Chat == nil {
		return 0.5
	}

	system := "You score how relevant a piece of content is to a research notebook, from 0 to 1. Respond with only the number."
	prompt := fmt.Sprintf("Intent: %s\nFocus areas: %s\n%s\nTitle: %s\nPreview: %s",
		sc.profile.Intent, strings.Join(sc.profile.FocusAreas, ", "), sc.guidance, item.Title, item.Preview)

	resp, err := g.deps.Chat.Complete(ctx, system, prompt, external.ChatOptions{Timeout: 10 * time.Second})
	if err != nil || resp == "" {
		return 0.5
	}
	if v, ok := parseFloat01(resp); ok {
		return v
	}
	return 0.5
}

var floatPattern = regexp.MustCompile(`-?\d+(\.\d+)?`)

func parseFloat01(s string) (float64, bool) {
	m := floatPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	var v float64
	if _, err := fmt.Sscanf(m, "%f", &v); err != nil {
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

// scoreFreshness is the piecewise freshness curve: <24h=1.0, <72h=0.8,
// <168h=0.6, older but within maxAgeDays linearly decays to 0.3, else 0.
func scoreFreshness(item *collect.CollectedItem, maxAgeDays int) float64 {
	age := time.Since(item.CollectedAt)
	hours := age.Hours()

	switch {
	case hours < 24:
		return 1.0
	case hours < 72:
		return 0.8
	case hours < 168:
		return 0.6
	}

	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	maxHours := float64(maxAgeDays) * 24
	if hours > maxHours {
		return 0.0
	}
	// Linear decay from 0.6 at 168h down to 0.3 at maxHours.
	span := maxHours - 168
	if span <= 0 {
		return 0.3
	}
	frac := (hours - 168) / span
	return 0.6 - frac*0.3
}

// learnedBonus applies +0.1 per preferred-topic/source match (each capped
// at a single bonus) and -0.2 for a rejected-pattern URL match.
func learnedBonus(item *collect.CollectedItem, prefs preferences.Preferences) (float64, []string) {
	var bonus float64
	var reasons []string

	titleLower := strings.ToLower(item.Title)
	for _, topic := range prefs.PreferredTopics {
		if topic != "" && strings.Contains(titleLower, strings.ToLower(topic)) {
			bonus += 0.1
			reasons = append(reasons, fmt.Sprintf("matches preferred topic %q", topic))
			break
		}
	}
	for _, src := range prefs.PreferredSources {
		if src != "" && strings.EqualFold(src, item.SourceName) {
			bonus += 0.1
			reasons = append(reasons, fmt.Sprintf("matches preferred source %q", src))
			break
		}
	}
	for _, pattern := range prefs.RejectedPatterns {
		if pattern != "" && strings.Contains(item.URL, pattern) {
			bonus -= 0.2
			reasons = append(reasons, fmt.Sprintf("matches rejected pattern %q", pattern))
			break
		}
	}
	return bonus, reasons
}
