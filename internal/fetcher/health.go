package fetcher

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kestrelresearch/scout/internal/collect"
)

// HealthTracker maintains one Source Health Record per (kind, entry) key,
// backed by a gobreaker.CircuitBreaker per key. The breaker's own
// closed/open/half-open states are the natural vocabulary for
// healthy/degraded versus failing: a key that keeps tripping open is
// "failing"; an open breaker whose key has accumulated 10 or more failures
// is reported as "dead".
type HealthTracker struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	records  map[string]*collect.SourceHealthRecord
}

// NewHealthTracker returns an empty tracker.
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		records:  make(map[string]*collect.SourceHealthRecord),
	}
}

func (h *HealthTracker) breakerFor(key string) *gobreaker.CircuitBreaker {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.breakers[key]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        key,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     10 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	h.breakers[key] = b
	h.records[key] = &collect.SourceHealthRecord{Key: key, Health: collect.HealthHealthy}
	return b
}

// Record runs fn through the key's circuit breaker, recording success or
// failure into the corresponding Source Health Record. fn returns the item
// count, which is added to the record's ItemsCollected on success.
func (h *HealthTracker) Record(key string, fn func() (int, error)) error {
	b := h.breakerFor(key)
	start := time.Now()
	result, err := b.Execute(func() (any, error) {
		n, fnErr := fn()
		return n, fnErr
	})
	elapsed := time.Since(start)

	h.mu.Lock()
	defer h.mu.Unlock()
	rec := h.records[key]
	now := time.Now()
	if err != nil {
		rec.LastFailure = now
		rec.FailureCount++
	} else {
		rec.LastSuccess = now
		if n, ok := result.(int); ok {
			rec.ItemsCollected += n
		}
	}
	if rec.AvgResponseTime == 0 {
		rec.AvgResponseTime = elapsed
	} else {
		rec.AvgResponseTime = (rec.AvgResponseTime + elapsed) / 2
	}
	rec.Health = healthFromBreaker(b.State(), rec.FailureCount)
	return err
}

func healthFromBreaker(state gobreaker.State, failureCount int) collect.Health {
	switch state {
	case gobreaker.StateClosed:
		if failureCount == 0 {
			return collect.HealthHealthy
		}
		return collect.HealthDegraded
	case gobreaker.StateHalfOpen:
		return collect.HealthFailing
	case gobreaker.StateOpen:
		if failureCount >= 10 {
			return collect.HealthDead
		}
		return collect.HealthFailing
	default:
		return collect.HealthHealthy
	}
}

// Get returns the health record for a key, or a zero-value "unknown"
// (trust 0.5) record if the key has never been probed.
func (h *HealthTracker) Get(key string) collect.SourceHealthRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rec, ok := h.records[key]; ok {
		return *rec
	}
	return collect.SourceHealthRecord{Key: key}
}

// Degrade applies the stale-source demotion: a healthy record with no
// fetch activity attempted in over 30 days is reported as degraded.
func (h *HealthTracker) Degrade(key string, asOf time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec, ok := h.records[key]
	if !ok || rec.Health != collect.HealthHealthy {
		return
	}
	if rec.LastSuccess.IsZero() || asOf.Sub(rec.LastSuccess) > 30*24*time.Hour {
		rec.Health = collect.HealthDegraded
	}
}

// DegradeNow forces an unconditional demotion to degraded, used for direct
// negative feedback (a user flagging an item as bad_source) rather than
// staleness. A key never probed before gets a fresh degraded record rather
// than being silently ignored, since explicit feedback is itself evidence.
// Already-failing/dead records are left alone — they are already worse off.
func (h *HealthTracker) DegradeNow(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec, ok := h.records[key]
	if !ok {
		rec = &collect.SourceHealthRecord{Key: key}
		h.records[key] = rec
	}
	if rec.Health == collect.HealthFailing || rec.Health == collect.HealthDead {
		return
	}
	rec.Health = collect.HealthDegraded
}
