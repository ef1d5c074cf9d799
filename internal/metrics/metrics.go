// Package metrics exposes the Prometheus instrumentation for the collection
// pipeline: how many items move through each stage, how long fetches take,
// and how deep the approval queues are sitting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the service registers. Constructed once
// at startup and threaded through the components that produce the
// underlying events, the same way the teacher threads a logger.
type Metrics struct {
	ItemsCollected  *prometheus.CounterVec
	ItemsApproved   *prometheus.CounterVec
	ItemsRejected   *prometheus.CounterVec
	ItemsDeferred   *prometheus.CounterVec
	FetchDuration   *prometheus.HistogramVec
	QueueDepth      *prometheus.GaugeVec
	BriefingsSent   prometheus.Counter
}

// New registers and returns the full metric set against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ItemsCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout",
			Subsystem: "gatherer",
			Name:      "items_collected_total",
			Help:      "Items fetched and surviving dedup, by notebook.",
		}, []string{"notebook"}),
		ItemsApproved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout",
			Subsystem: "gatherer",
			Name:      "items_approved_total",
			Help:      "Items approved and persisted to the source store, by notebook and disposition path.",
		}, []string{"notebook", "path"}),
		ItemsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout",
			Subsystem: "gatherer",
			Name:      "items_rejected_total",
			Help:      "Items rejected, by notebook and reason.",
		}, []string{"notebook", "reason"}),
		ItemsDeferred: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout",
			Subsystem: "supervisor",
			Name:      "items_deferred_total",
			Help:      "Items deferred to human review by the Supervisor's judgment pass, by notebook.",
		}, []string{"notebook"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scout",
			Subsystem: "fetcher",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent in one adapter's fetch call, by source kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "scout",
			Subsystem: "gatherer",
			Name:      "approval_queue_depth",
			Help:      "Current number of pending approval-queue entries, by notebook.",
		}, []string{"notebook"}),
		BriefingsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "scout",
			Subsystem: "briefings",
			Name:      "generated_total",
			Help:      "Briefings generated by the Briefing Pipeline.",
		}),
	}
}
