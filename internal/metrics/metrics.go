// Package metrics counts what a run did: documents by outcome, skips by
// reason, candidates by strategy, decisions by method and master merge
// outcomes. Each run owns its registry so counts never leak between runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/hilal/internal/model"
)

// Metrics holds the run counters.
type Metrics struct {
	registry *prometheus.Registry

	// Documents by outcome: processed, missing, stub, failed
	Documents *prometheus.CounterVec

	// Skipped input by reason
	Skips *prometheus.CounterVec

	// Candidates surviving dedup, by strategy
	Candidates *prometheus.CounterVec

	// Reconciled keys by canonical method
	Reconciled *prometheus.CounterVec

	// Master rows by merge outcome
	MergeRows *prometheus.CounterVec

	// Page fetches served from cache vs network
	Fetches *prometheus.CounterVec
}

// New creates a Metrics instance on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Documents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hilal_documents_total",
			Help: "Archived pages by outcome",
		}, []string{"outcome"}),

		Skips: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hilal_skips_total",
			Help: "Input skipped without failing the run, by reason",
		}, []string{"reason"}),

		Candidates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hilal_candidates_total",
			Help: "Deduplicated candidate records by extraction strategy",
		}, []string{"strategy"}),

		Reconciled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hilal_reconciled_total",
			Help: "Reconciled month starts by method",
		}, []string{"method"}),

		MergeRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hilal_master_rows_total",
			Help: "Master dataset rows by merge outcome",
		}, []string{"outcome"}),

		Fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hilal_fetches_total",
			Help: "Page retrievals by origin",
		}, []string{"origin"}), // origin: "cache", "network", "disk"
	}
}

// Registry exposes the underlying gatherer.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncrementDocument records one page outcome.
func (m *Metrics) IncrementDocument(outcome string) {
	if m != nil {
		m.Documents.WithLabelValues(outcome).Inc()
	}
}

// IncrementFetch records where a page body came from.
func (m *Metrics) IncrementFetch(origin string) {
	if m != nil {
		m.Fetches.WithLabelValues(origin).Inc()
	}
}

// ObserveReport copies the counters of a finished run report.
func (m *Metrics) ObserveReport(r *model.RunReport) {
	if m == nil || r == nil {
		return
	}
	for reason, n := range r.Skips {
		m.Skips.WithLabelValues(string(reason)).Add(float64(n))
	}
	for strategy, n := range r.CandidatesByStrategy {
		m.Candidates.WithLabelValues(string(strategy)).Add(float64(n))
	}
	for method, n := range r.ReconciledByMethod {
		m.Reconciled.WithLabelValues(string(method)).Add(float64(n))
	}
	if r.Merge != nil {
		m.ObserveMerge(*r.Merge)
	}
}

// ObserveMerge records master merge outcomes.
func (m *Metrics) ObserveMerge(s model.MergeStats) {
	if m == nil {
		return
	}
	m.MergeRows.WithLabelValues("curated").Add(float64(s.Curated))
	m.MergeRows.WithLabelValues("updated").Add(float64(s.Updated))
	m.MergeRows.WithLabelValues("reference_only").Add(float64(s.ReferenceOnly))
	m.MergeRows.WithLabelValues("unchanged").Add(float64(s.Unchanged))
	m.MergeRows.WithLabelValues("unkeyed").Add(float64(s.Unkeyed))
}

// WriteTextfile writes the registry in Prometheus text exposition format,
// suitable for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
