package supervisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
	"github.com/kestrelresearch/scout/internal/gatherer"
	"github.com/kestrelresearch/scout/internal/memory"
	"github.com/kestrelresearch/scout/internal/notebook"
)

// avoidSimilarSearchLimit and avoidSimilarSampleCount bound the pre-dispatch
// novelty search: ≤5 hits searched, first 3 content prefixes carried as
// avoid_similar_to samples.
const (
	avoidSimilarSearchLimit = 5
	avoidSimilarSampleCount = 3
	avoidSimilarPrefixLen   = 500
)

// buildTask assembles a CollectionTask for one notebook, including the
// novelty-avoidance search against its own GATHERER archive.
func (s *Supervisor) buildTask(ctx context.Context, profile notebook.Profile, specificQuery string, smartQueries []string) CollectionTask {
	task := CollectionTask{
		NotebookID:          profile.NotebookID,
		Intent:              profile.Intent,
		FocusAreas:          profile.FocusAreas,
		Sources:             profile.ToSourcesConfig(),
		Mode:                profile.ApprovalMode,
		SupervisorDirective: "favor novel information not already in the archive",
		SpecificQuery:       specificQuery,
		SmartQueries:        smartQueries,
		Deadline:            time.Now().Add(5 * time.Minute),
	}

	if s.deps.Embedder == nil || s.deps.Archive == nil || profile.Intent == "" {
		return task
	}
	vec, err := s.deps.Embedder.Embed(ctx, profile.Intent)
	if err != nil {
		return task
	}
	results, err := s.deps.Archive.Search(ctx, profile.NotebookID, memory.ArchiveSearchInput{
		QueryEmbedding:     memory.NewEmbeddingVector(vec),
		Limit:              avoidSimilarSearchLimit,
		AsGathererNotebook: profile.NotebookID,
	})
	if err != nil {
		return task
	}
	for i, r := range results {
		if i >= avoidSimilarSampleCount {
			break
		}
		content := r.Content
		if len(content) > avoidSimilarPrefixLen {
			content = content[:avoidSimilarPrefixLen]
		}
		task.AvoidSimilarTo = append(task.AvoidSimilarTo, content)
	}
	return task
}

// CollectionTask mirrors gatherer.CollectionTask's shape; the Supervisor
// builds one of these per notebook and hands it to that notebook's
// Gatherer.
type CollectionTask = gatherer.CollectionTask

// OrchestrateCollection iterates the given notebooks (or every known
// notebook if nil), builds a task for each, and delegates to that notebook's
// Gatherer, which disposes of the items by the notebook's approval_mode; no
// Supervisor judgment is applied on this path. Per-notebook failures are
// logged and do not abort the batch.
func (s *Supervisor) OrchestrateCollection(ctx context.Context, notebookIDs []string) (map[string]gatherer.TaskResult, error) {
	ids := notebookIDs
	if len(ids) == 0 && s.deps.Notebooks != nil {
		listed, err := s.deps.Notebooks.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing notebooks: %w", err)
		}
		ids = listed
	}

	results := make(map[string]gatherer.TaskResult, len(ids))
	for _, id := range ids {
		profile, err := s.deps.Profiles.Load(id)
		if err != nil {
			s.deps.Logger.Warn("supervisor: loading profile failed", "notebook", id, "error", err)
			continue
		}
		if profile.CollectionMode == notebook.ModeManual {
			continue
		}

		g, err := s.deps.Gatherers.Get(id)
		if err != nil {
			s.deps.Logger.Warn("supervisor: getting gatherer failed", "notebook", id, "error", err)
			continue
		}

		task := s.buildTask(ctx, profile, "", nil)
		result, err := g.ExecuteCollectionTask(ctx, task)
		if err != nil {
			s.deps.Logger.Warn("supervisor: collection task failed", "notebook", id, "error", err)
			continue
		}
		results[id] = result
	}
	return results, nil
}

// ImmediateCollectResult is the structured outcome of a user-triggered
// "collect now" action.
type ImmediateCollectResult struct {
	ItemsCollected int
	Approved       []string
	Pending        []string
	Rejected       []string
	Filtered       []string
	Message        string
}

// AssignImmediateCollection runs a single notebook's collection task
// synchronously and applies Supervisor judgment (rather than the
// notebook's approval_mode) to each resulting item, enforcing the hard
// confidence floor regardless of judgment.
func (s *Supervisor) AssignImmediateCollection(ctx context.Context, notebookID, specificQuery string) (ImmediateCollectResult, error) {
	var out ImmediateCollectResult

	profile, err := s.deps.Profiles.Load(notebookID)
	if err != nil {
		return out, fmt.Errorf("loading profile for %s: %w", notebookID, err)
	}

	g, err := s.deps.Gatherers.Get(notebookID)
	if err != nil {
		return out, fmt.Errorf("getting gatherer for %s: %w", notebookID, err)
	}

	task := s.buildTask(ctx, profile, specificQuery, nil)
	items, _, err := g.CollectAndScore(ctx, task)
	if err != nil {
		return out, fmt.Errorf("collecting for %s: %w", notebookID, err)
	}
	out.ItemsCollected = len(items)

	for _, item := range items {
		if item.OverallConfidence < ConfidenceFloor {
			out.Filtered = append(out.Filtered, item.Title)
			continue
		}

		judgment := s.judgeSingleItem(ctx, item, profile.Intent)
		switch judgment.Decision {
		case DecisionApprove:
			if err := g.PersistApproved(ctx, item); err != nil {
				s.deps.Logger.Warn("supervisor: persisting approved item failed", "item", item.ID, "error", err)
				out.Filtered = append(out.Filtered, item.Title)
				continue
			}
			out.Approved = append(out.Approved, item.Title)
		case DecisionReject:
			g.RecordRejection(ctx, item, judgment.Reason)
			out.Rejected = append(out.Rejected, item.Title)
		default:
			if err := g.QueueForReview(item, judgment.Reason); err != nil {
				s.deps.Logger.Warn("supervisor: queueing item failed", "item", item.ID, "error", err)
				continue
			}
			out.Pending = append(out.Pending, item.Title)
			if s.deps.Metrics != nil {
				s.deps.Metrics.ItemsDeferred.WithLabelValues(notebookID).Inc()
			}
		}
	}

	if out.ItemsCollected == 0 {
		out.Message = "no new items found"
	} else {
		out.Message = fmt.Sprintf("collected %d items: %d approved, %d pending, %d rejected, %d filtered",
			out.ItemsCollected, len(out.Approved), len(out.Pending), len(out.Rejected), len(out.Filtered))
	}
	return out, nil
}

// ScoreUserItem scores a manually-added item as though it had come through
// the normal pipeline, then records amplified (1.5x) signals for the topics
// it touches.
func (s *Supervisor) ScoreUserItem(ctx context.Context, notebookID string, fi collect.FetchedItem, topics []string) (collect.CollectedItem, error) {
	g, err := s.deps.Gatherers.Get(notebookID)
	if err != nil {
		return collect.CollectedItem{}, fmt.Errorf("getting gatherer for %s: %w", notebookID, err)
	}
	item, err := g.ScoreItem(ctx, fi)
	if err != nil {
		return item, err
	}

	if s.deps.Signals != nil {
		for _, topic := range topics {
			if strings.TrimSpace(topic) == "" {
				continue
			}
			_ = s.deps.Signals.Record(ctx, collect.UserSignal{
				NotebookID: notebookID,
				Type:       collect.SignalTopicInterest,
				ItemID:     item.ID,
				Timestamp:  time.Now(),
				Metadata:   map[string]string{"topic": topic, "weight": "1.5"},
			})
		}
		_ = s.deps.Signals.Record(ctx, collect.UserSignal{
			NotebookID: notebookID,
			Type:       collect.SignalUserCapture,
			ItemID:     item.ID,
			Timestamp:  time.Now(),
			Metadata:   map[string]string{"weight": "1.5"},
		})
	}
	return item, nil
}
