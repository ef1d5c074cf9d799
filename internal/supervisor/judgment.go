package supervisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/external"
)

// Decision is the closed set of outcomes a judgment can reach.
type Decision string

const (
	DecisionApprove     Decision = "approve"
	DecisionReject      Decision = "reject"
	DecisionDeferToUser Decision = "defer_to_user"
)

// AutoApproveThreshold and ConfidenceFloor mirror the Gatherer's own
// constants; both agents must agree on these values, so they are declared
// in both packages rather than one importing the other for two numbers.
const (
	AutoApproveThreshold   = 0.85
	ConfidenceFloor        = 0.50
	OverlapRejectThreshold = 0.80
)

// JudgmentResult is the outcome of judging one collected item.
type JudgmentResult struct {
	Item          collect.CollectedItem
	Decision      Decision
	Reason        string
	Confidence    float64
	Modifications map[string]string
}

// judgeSingleItem implements the four-step judgment algorithm: auto-approve
// above the threshold, defer below the floor, reject on stale-overlap, else
// ask a chat-completion judge with a parse-failure fallback to defer.
func (s *Supervisor) judgeSingleItem(ctx context.Context, item collect.CollectedItem, intent string) JudgmentResult {
	base := JudgmentResult{Item: item, Confidence: item.OverallConfidence}

	if item.OverallConfidence >= AutoApproveThreshold {
		base.Decision = DecisionApprove
		base.Reason = fmt.Sprintf("confidence %.2f meets auto-approve threshold", item.OverallConfidence)
		return base
	}
	if item.OverallConfidence < ConfidenceFloor {
		base.Decision = DecisionDeferToUser
		base.Reason = fmt.Sprintf("confidence %.2f below the review floor", item.OverallConfidence)
		return base
	}
	if item.KnowledgeOverlap > OverlapRejectThreshold && isStaleDelta(item.DeltaSummary) {
		base.Decision = DecisionReject
		base.Reason = "no significant new information: overlaps existing knowledge"
		return base
	}

	if s.deps.Chat == nil {
		base.Decision = DecisionDeferToUser
		base.Reason = "no chat-completion judge available"
		return base
	}

	system := "You judge whether a collected research item should be approved, rejected, or deferred to the user. " +
		"Respond with exactly two lines: the decision (APPROVE, REJECT, or DEFER) and then a one-sentence reason."
	prompt := fmt.Sprintf("Notebook intent: %s\nTitle: %s\nSource: %s\nPreview: %s", intent, item.Title, item.SourceName, item.Preview)

	resp, err := s.deps.Chat.Complete(ctx, system, prompt, external.ChatOptions{Timeout: 10 * time.Second})
	if err != nil || resp == "" {
		base.Decision = DecisionDeferToUser
		base.Reason = "judgment call failed, deferring to user"
		return base
	}

	decision, reason, ok := parseJudgment(resp)
	if !ok {
		base.Decision = DecisionDeferToUser
		base.Reason = "could not parse judgment response, deferring to user"
		return base
	}
	base.Decision = decision
	base.Reason = reason
	return base
}

// JudgeCollection judges every item in a batch, returning one result per
// item in the same order.
func (s *Supervisor) JudgeCollection(ctx context.Context, items []collect.CollectedItem, intent string) []JudgmentResult {
	results := make([]JudgmentResult, len(items))
	for i, item := range items {
		results[i] = s.judgeSingleItem(ctx, item, intent)
	}
	return results
}

// isStaleDelta reports whether a delta summary indicates no meaningful new
// information, per the overlap-reject rule's text match.
func isStaleDelta(delta string) bool {
	if delta == "" {
		return true
	}
	lower := strings.ToLower(delta)
	for _, phrase := range []string{"no new", "no significant", "already"} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func parseJudgment(resp string) (Decision, string, bool) {
	lines := strings.SplitN(strings.TrimSpace(resp), "\n", 2)
	first := strings.ToUpper(strings.TrimSpace(lines[0]))

	var decision Decision
	switch {
	case strings.Contains(first, "APPROVE"):
		decision = DecisionApprove
	case strings.Contains(first, "REJECT"):
		decision = DecisionReject
	case strings.Contains(first, "DEFER"):
		decision = DecisionDeferToUser
	default:
		return "", "", false
	}

	reason := "judged by chat-completion model"
	if len(lines) > 1 {
		reason = strings.TrimSpace(lines[1])
	}
	return decision, reason, true
}
