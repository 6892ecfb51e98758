package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/hilal/internal/model"
)

func TestObserveReport(t *testing.T) {
	m := New()

	r := model.NewRunReport("run-1", "pages")
	r.AddSkip(model.SkipMissingDocument, 3)
	r.AddSkip(model.SkipUnresolvableCountry, 2)
	r.CandidatesByStrategy[model.StrategyTable] = 7
	r.ReconciledByMethod[model.StatusOfficialDeclaration] = 4
	r.Merge = &model.MergeStats{Rows: 10, Curated: 2, Updated: 5, Unchanged: 3}

	m.ObserveReport(r)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Skips.WithLabelValues("missing_document")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Skips.WithLabelValues("unresolvable_country")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Candidates.WithLabelValues("Table")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Reconciled.WithLabelValues("OfficialDeclaration")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.MergeRows.WithLabelValues("updated")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MergeRows.WithLabelValues("curated")))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.IncrementDocument("processed")
	a.IncrementDocument("processed")
	b.IncrementDocument("processed")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.Documents.WithLabelValues("processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Documents.WithLabelValues("processed")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementDocument("processed")
		m.IncrementFetch("cache")
		m.ObserveReport(model.NewRunReport("run", "pages"))
		m.ObserveMerge(model.MergeStats{})
	})
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.IncrementDocument("missing")
	m.IncrementFetch("network")

	path := filepath.Join(t.TempDir(), "hilal.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `hilal_documents_total{outcome="missing"} 1`)
	assert.Contains(t, string(data), `hilal_fetches_total{origin="network"} 1`)
}
