// Package metrics exposes Prometheus counters for the sync pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	IngestRuns        prometheus.Counter
	AssignmentsNew    prometheus.Counter
	AssignmentsMerged prometheus.Counter
	CandidatesSkipped prometheus.Counter
	AmbiguousMatches  prometheus.Counter
	ArchivedTotal     prometheus.Counter
	RestoredTotal     prometheus.Counter
	ReconcileUpdates  prometheus.Counter
	IngestDuration    prometheus.Histogram
	ActiveAssignments prometheus.Gauge
	ArchiveSize       prometheus.Gauge
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		IngestRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moodlesync_ingest_runs_total",
			Help: "Total number of ingest batches processed",
		}),
		AssignmentsNew: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moodlesync_assignments_new_total",
			Help: "Total number of new assignments created",
		}),
		AssignmentsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moodlesync_assignments_merged_total",
			Help: "Total number of candidates merged into existing assignments",
		}),
		CandidatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moodlesync_candidates_skipped_total",
			Help: "Total number of candidates skipped for validation failures",
		}),
		AmbiguousMatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moodlesync_ambiguous_matches_total",
			Help: "Total number of fuzzy matches refused as ambiguous",
		}),
		ArchivedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moodlesync_archived_total",
			Help: "Total number of assignments moved to the archive",
		}),
		RestoredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moodlesync_restored_total",
			Help: "Total number of assignments restored from the archive",
		}),
		ReconcileUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moodlesync_reconcile_updates_total",
			Help: "Total number of status updates applied from remote platforms",
		}),
		IngestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "moodlesync_ingest_duration_seconds",
			Help:    "Time spent processing ingest batches",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveAssignments: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "moodlesync_active_assignments",
			Help: "Number of assignments in the active collection",
		}),
		ArchiveSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "moodlesync_archived_assignments",
			Help: "Number of assignments in the archive",
		}),
	}
}
