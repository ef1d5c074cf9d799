// Package preferences implements the Preference Learner: aggregation of
// user signals into a notebook's learned preference profile.
package preferences

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/memory"
)

// Window is how far back signals are aggregated.
const Window = 90 * 24 * time.Hour

// Preferences is the learned preference profile for one notebook.
type Preferences struct {
	PreferredTopics  []string
	PreferredSources []string
	RejectedPatterns []string
	CaptureCount     int
	ApprovalRate     float64
	HighlightCount   int
}

// topTen bounds how many topics/sources survive aggregation.
const topTen = 10

// Learner aggregates a notebook's signal log into a Preferences profile.
type Learner struct {
	signals *memory.Signals
}

// NewLearner returns a Learner reading from signals.
func NewLearner(signals *memory.Signals) *Learner {
	return &Learner{signals: signals}
}

// Aggregate computes the preference profile from the last 90 days of
// signals, per the weighting table: content_highlighted contributes x3 to
// its topic and x2 to its entity (both counted among topics), user_capture
// x2, topic_interest x1;
// item_approved increments source counts; source_rejected feeds
// rejected_patterns.
func (l *Learner) Aggregate(ctx context.Context, notebookID string) (Preferences, error) {
	since := time.Now().Add(-Window)
	sigs, err := l.signals.Since(ctx, notebookID, since)
	if err != nil {
		return Preferences{}, fmt.Errorf("loading signals for %s: %w", notebookID, err)
	}

	topicWeights := make(map[string]int)
	sourceWeights := make(map[string]int)
	var rejectedPatterns []string
	var captureCount, highlightCount, approvals, rejections int

	addWeighted := func(m map[string]int, key string, weight int, sig collect.UserSignal) {
		if key == "" {
			return
		}
		// Weights are tallied at twice their nominal value so that a 1.5x
		// multiplier on a weight of 1 stays a whole number.
		scaled := float64(weight * 2)
		// A manually-amplified signal (e.g. the Supervisor's score_user_item
		// path) may carry an explicit multiplier in its metadata.
		if mult, err := strconv.ParseFloat(sig.Metadata["weight"], 64); err == nil && mult > 0 {
			scaled *= mult
		}
		m[key] += int(scaled)
	}

	for _, sig := range sigs {
		topic := sig.Metadata["topic"]
		source := sig.Metadata["source"]

		switch sig.Type {
		case collect.SignalContentHighlighted:
			addWeighted(topicWeights, topic, 3, sig)
			addWeighted(topicWeights, sig.Metadata["entity"], 2, sig)
			highlightCount++
		case collect.SignalUserCapture:
			addWeighted(topicWeights, topic, 2, sig)
			captureCount++
		case collect.SignalTopicInterest:
			addWeighted(topicWeights, topic, 1, sig)
		case collect.SignalItemApproved:
			addWeighted(sourceWeights, source, 1, sig)
			approvals++
		case collect.SignalSourceApproved:
			addWeighted(sourceWeights, source, 1, sig)
		case collect.SignalSourceRejected:
			if pattern := sig.Metadata["pattern"]; pattern != "" {
				rejectedPatterns = append(rejectedPatterns, pattern)
			}
			rejections++
		case collect.SignalItemRejected:
			rejections++
		}
	}

	approvalRate := 0.0
	if approvals+rejections > 0 {
		approvalRate = float64(approvals) / float64(approvals+rejections)
	}

	return Preferences{
		PreferredTopics:  topN(topicWeights, topTen),
		PreferredSources: topN(sourceWeights, topTen),
		RejectedPatterns: rejectedPatterns,
		CaptureCount:     captureCount,
		ApprovalRate:     approvalRate,
		HighlightCount:   highlightCount,
	}, nil
}

func topN(weights map[string]int, n int) []string {
	type kv struct {
		key    string
		weight int
	}
	items := make([]kv, 0, len(weights))
	for k, w := range weights {
		items = append(items, kv{k, w})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].weight != items[j].weight {
			return items[i].weight > items[j].weight
		}
		return items[i].key < items[j].key
	})
	if len(items) > n {
		items = items[:n]
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.key
	}
	return out
}
