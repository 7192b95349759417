package scenario

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes used as the runs_total label
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
	OutcomeError  = "error"
)

// Metrics bundles the collectors describing scenario runs
type Metrics struct {
	Registry         *prometheus.Registry
	RecordsExtracted prometheus.Counter
	FieldsMissing    *prometheus.CounterVec
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booksearch_records_extracted_total",
			Help: "Total number of book records extracted from search results.",
		},
	)
	missing := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booksearch_optional_fields_missing_total",
			Help: "Search results without an optional field, by field.",
		},
		[]string{"field"},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booksearch_runs_total",
			Help: "Scenario runs by outcome.",
		},
		[]string{"outcome"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booksearch_run_duration_seconds",
			Help:    "Wall time of a scenario run, browser actions included.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80},
		},
	)

	registry.MustRegister(records, missing, runs, duration)

	return &Metrics{
		Registry:         registry,
		RecordsExtracted: records,
		FieldsMissing:    missing,
		RunsTotal:        runs,
		RunDuration:      duration,
	}
}

// AddRecords counts extracted records
func (m *Metrics) AddRecords(n int) {
	if m == nil {
		return
	}
	m.RecordsExtracted.Add(float64(n))
}

// IncMissing counts one result lacking field
func (m *Metrics) IncMissing(field string) {
	if m == nil {
		return
	}
	m.FieldsMissing.WithLabelValues(field).Inc()
}

// ObserveRun records the outcome and duration of a run
func (m *Metrics) ObserveRun(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// WriteTextfile writes every metric to path in the text exposition format,
// atomically, for node_exporter's textfile collector to pick up.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
