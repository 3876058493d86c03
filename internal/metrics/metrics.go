// Package metrics holds the prometheus collectors for ranking passes,
// event-store calls, feed refills and background workers. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricRankPassesTotal   = "hackertok_rank_passes_total"
	MetricRankDuration      = "hackertok_rank_duration_seconds"
	MetricRankCandidates    = "hackertok_rank_candidates"
	MetricStoreOpsTotal     = "hackertok_store_ops_total"
	MetricEventsTotal       = "hackertok_events_recorded_total"
	MetricRefillsTotal      = "hackertok_refills_total"
	MetricWorkerRunsTotal   = "hackertok_worker_runs_total"
	MetricWorkerRunDuration = "hackertok_worker_run_duration_seconds"
)

// Rank pass triggers.
const (
	TriggerStart    = "start"
	TriggerNavigate = "navigate"
	TriggerToggle   = "toggle"
	TriggerClick    = "click"
	TriggerRefill   = "refill"
)

// Status values shared by the counters.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusTimeout = "timeout"
	StatusEmpty   = "empty"
)

type Metrics struct {
	rankPasses     *prometheus.CounterVec
	rankDuration   *prometheus.HistogramVec
	rankCandidates prometheus.Histogram
	storeOps       *prometheus.CounterVec
	events         *prometheus.CounterVec
	refills        *prometheus.CounterVec
	workerRuns     *prometheus.CounterVec
	workerDuration *prometheus.HistogramVec
}

// New creates the collectors without registering them.
func New() *Metrics {
	return &Metrics{
		rankPasses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankPassesTotal,
				Help: "Ranking passes by trigger",
			},
			[]string{"trigger"},
		),
		rankDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRankDuration,
				Help:    "Duration of ranking passes in seconds by trigger",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"trigger"},
		),
		rankCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricRankCandidates,
				Help:    "Number of candidates per ranking pass",
				Buckets: prometheus.ExponentialBuckets(5, 2, 8),
			},
		),
		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricStoreOpsTotal,
				Help: "Event store calls by operation and status",
			},
			[]string{"op", "status"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEventsTotal,
				Help: "Reader events recorded by type",
			},
			[]string{"type"},
		),
		refills: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRefillsTotal,
				Help: "Candidate page fetches by status",
			},
			[]string{"status"},
		),
		workerRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricWorkerRunsTotal,
				Help: "Background worker runs by worker and status",
			},
			[]string{"worker", "status"},
		),
		workerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricWorkerRunDuration,
				Help:    "Background worker run duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"worker"},
		),
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rankPasses, m.rankDuration, m.rankCandidates,
		m.storeOps, m.events, m.refills,
		m.workerRuns, m.workerDuration,
	}
}

// ObserveRank records one ranking pass.
func (m *Metrics) ObserveRank(trigger string, candidates int, seconds float64) {
	if m == nil {
		return
	}
	m.rankPasses.WithLabelValues(trigger).Inc()
	m.rankDuration.WithLabelValues(trigger).Observe(seconds)
	m.rankCandidates.Observe(float64(candidates))
}

func (m *Metrics) IncStoreOp(op, status string) {
	if m == nil {
		return
	}
	m.storeOps.WithLabelValues(op, status).Inc()
}

func (m *Metrics) IncEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncRefill(status string) {
	if m == nil {
		return
	}
	m.refills.WithLabelValues(status).Inc()
}

// ObserveWorkerRun records one run of a background worker.
func (m *Metrics) ObserveWorkerRun(worker, status string, seconds float64) {
	if m == nil {
		return
	}
	m.workerRuns.WithLabelValues(worker, status).Inc()
	m.workerDuration.WithLabelValues(worker).Observe(seconds)
}
