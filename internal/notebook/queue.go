package notebook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
)

// Queue is the persisted approval queue for one notebook. The queue JSON is
// rewritten in full on every mutation; reads filter expired entries first.
type Queue struct {
	mu      sync.Mutex
	dataDir string
	notebookID string
}

// NewQueue returns a Queue bound to one notebook's approval_queue.json.
func NewQueue(dataDir, notebookID string) *Queue {
	return &Queue{dataDir: dataDir, notebookID: notebookID}
}

func (q *Queue) path() string {
	return filepath.Join(q.dataDir, "notebooks", q.notebookID, "approval_queue.json")
}

func (q *Queue) load() ([]collect.ApprovalQueueEntry, error) {
	data, err := os.ReadFile(q.path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading approval queue: %w", err)
	}
	var entries []collect.ApprovalQueueEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing approval queue: %w", err)
	}
	return entries, nil
}

func (q *Queue) save(entries []collect.ApprovalQueueEntry) error {
	target := q.path()
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating notebook dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling approval queue: %w", err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing approval queue temp file: %w", err)
	}
	return os.Rename(tmp, target)
}

// All returns every non-expired entry, purging expired ones from disk as a
// side effect of the read.
func (q *Queue) All() ([]collect.ApprovalQueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	live := entries[:0]
	changed := false
	for _, e := range entries {
		if e.Expired(now) {
			changed = true
			continue
		}
		live = append(live, e)
	}
	if changed {
		if err := q.save(live); err != nil {
			return nil, err
		}
	}
	return live, nil
}

// Add appends a new entry with the default 7-day TTL. note carries the
// reason the item was sent to review instead of being auto-disposed (e.g.
// a Supervisor judgment's rationale); empty for routine queueing.
func (q *Queue) Add(item collect.CollectedItem, note string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load()
	if err != nil {
		return err
	}
	now := time.Now()
	entries = append(entries, collect.ApprovalQueueEntry{
		Item:       item,
		QueuedAt:   now,
		ExpiresAt:  now.Add(collect.QueueTTL),
		ReviewNote: note,
	})
	return q.save(entries)
}

// Remove deletes the entry for the given item ID, if present.
func (q *Queue) Remove(itemID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load()
	if err != nil {
		return err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.Item.ID != itemID {
			out = append(out, e)
		}
	}
	return q.save(out)
}

// ExpiringSoon returns live entries expiring within the given window.
func (q *Queue) ExpiringSoon(within time.Duration) ([]collect.ApprovalQueueEntry, error) {
	all, err := q.All()
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(within)
	var out []collect.ApprovalQueueEntry
	for _, e := range all {
		if e.ExpiresAt.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}
