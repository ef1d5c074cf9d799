package gatherer

import (
	"context"
	"sort"
	"strings"

	"github.com/kestrelresearch/scout/internal/notebook"
)

// coverageGapKeywordCap bounds how many underserved-focus-area keywords the
// coverage-gap step contributes, mirroring the static subject×focus_areas
// fallback's own cap.
const coverageGapKeywordCap = 5

// coverageGapFraction is the share of the per-area mean mention count below
// which a focus area counts as a coverage gap.
const coverageGapFraction = 0.4

// assembleKeywords builds the search keyword list a collection task's fetch
// uses, in priority order:
//  1. smart queries supplied by the Supervisor (LLM-generated, most
//     specific) take priority outright;
//  2. failing that, coverage-gap keywords computed from how rarely each
//     focus area is mentioned in the notebook's existing sources;
//  3. a caller-supplied specific query is always inserted at the front,
//     ahead of whichever of the above produced the base list;
//  4. if nothing produced a keyword yet, fall back to a static
//     subject×focus_areas combination.
//
// The subject is always guaranteed to appear at least once in the result.
func (g *Gatherer) assembleKeywords(ctx context.Context, task CollectionTask, profile notebook.Profile) []string {
	var keywords []string
	subject := strings.TrimSpace(profile.Subject)

	if len(task.SmartQueries) > 0 {
		keywords = append(keywords, task.SmartQueries...)
	} else {
		for _, gk := range g.analyzeCoverageGaps(ctx, profile) {
			if !containsString(keywords, gk) {
				keywords = append(keywords, gk)
			}
		}
	}

	if task.SpecificQuery != "" {
		keywords = append([]string{task.SpecificQuery}, keywords...)
	}

	if len(keywords) == 0 {
		focusAreas := task.FocusAreas
		if len(focusAreas) == 0 {
			focusAreas = profile.FocusAreas
		}
		switch {
		case subject != "" && len(focusAreas) > 0:
			for _, area := range firstN(focusAreas, coverageGapKeywordCap) {
				area = strings.TrimSpace(area)
				if area == "" {
					continue
				}
				if !strings.Contains(strings.ToLower(area), strings.ToLower(subject)) {
					keywords = append(keywords, subject+" "+area)
				} else {
					keywords = append(keywords, area)
				}
			}
			keywords = append(keywords, subject)
		case len(focusAreas) > 0:
			keywords = append(keywords, firstN(focusAreas, coverageGapKeywordCap)...)
		case subject != "":
			keywords = append(keywords, subject)
		}
	}

	if subject != "" && !containsString(keywords, subject) {
		keywords = append(keywords, subject)
	}

	return keywords
}

// analyzeCoverageGaps compares how often each focus area is mentioned across
// the notebook's existing sources against their collective mean, returning
// keywords biased toward the most underserved areas (ascending by mention
// count, capped at coverageGapKeywordCap). A fresh notebook with no existing
// sources has nothing to compare against and returns nil.
func (g *Gatherer) analyzeCoverageGaps(ctx context.Context, profile notebook.Profile) []string {
	if len(profile.FocusAreas) == 0 || g.deps.Sources == nil {
		return nil
	}

	sources, err := g.deps.Sources.List(ctx, g.notebookID)
	if err != nil || len(sources) == 0 {
		return nil
	}

	subject := strings.TrimSpace(profile.Subject)

	type areaCount struct {
		area  string
		count int
	}
	counts := make([]areaCount, len(profile.FocusAreas))
	for i, area := range profile.FocusAreas {
		counts[i] = areaCount{area: area}
	}

	for _, src := range sources {
		text := strings.ToLower(src.Title + " " + src.Content)
		for i := range counts {
			if strings.Contains(text, strings.ToLower(counts[i].area)) {
				counts[i].count++
			}
		}
	}

	var total int
	for _, c := range counts {
		total += c.count
	}
	avg := float64(total) / float64(len(counts))
	threshold := avg * coverageGapFraction
	if threshold < 1 {
		threshold = 1
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].count < counts[j].count })

	var gaps []string
	for _, c := range counts {
		if float64(c.count) >= threshold {
			continue
		}
		area := strings.TrimSpace(c.area)
		if subject != "" && !strings.Contains(strings.ToLower(area), strings.ToLower(subject)) {
			gaps = append(gaps, subject+" "+area)
		} else {
			gaps = append(gaps, area)
		}
	}

	return firstN(gaps, coverageGapKeywordCap)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func firstN(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[:n]
}
