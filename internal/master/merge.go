package master

import (
	"slices"
	"strconv"

	"github.com/ppiankov/hilal/internal/model"
)

// Merge applies reconciled records to every non-curated row with a
// matching key. Dated records overwrite the date, year, method,
// confidence, notes and source; reference-only records overwrite method,
// confidence and notes. Curated rows are never touched.
func (d *Dataset) Merge(records []model.ReconciledRecord) model.MergeStats {
	byKey := make(map[model.Key]model.ReconciledRecord, len(records))
	for _, r := range records {
		if _, dup := byKey[r.Key]; !dup {
			byKey[r.Key] = r
		}
	}

	stats := model.MergeStats{Rows: len(d.Rows)}
	for i := range d.Rows {
		if d.Curated(i) {
			stats.Curated++
			continue
		}
		key, ok := d.Key(i)
		if !ok {
			stats.Unkeyed++
			continue
		}
		rec, ok := byKey[key]
		if !ok {
			stats.Unchanged++
			continue
		}

		before := slices.Clone(d.Rows[i])
		if rec.ReferenceOnly {
			d.applyReference(i, rec)
			stats.ReferenceOnly++
		} else {
			d.applyDated(i, rec)
			stats.Updated++
		}
		if !slices.Equal(before, d.Rows[i]) {
			stats.Changed++
		}
	}
	return stats
}

func (d *Dataset) applyDated(row int, rec model.ReconciledRecord) {
	d.set(row, ColGregorianStartDate, rec.GregorianStartDate.String())
	d.set(row, ColGregorianYear, strconv.Itoa(rec.GregorianStartDate.Year()))
	d.set(row, ColMethod, rec.MethodLabel)
	d.set(row, ColConfidenceScore, FormatConfidence(rec.Confidence))
	d.set(row, ColNotes, rec.Notes)
	d.set(row, ColSourceURL, rec.Source)
}

func (d *Dataset) applyReference(row int, rec model.ReconciledRecord) {
	d.set(row, ColMethod, rec.MethodLabel)
	d.set(row, ColConfidenceScore, FormatConfidence(rec.Confidence))
	d.set(row, ColNotes, rec.Notes)
}

// FormatConfidence renders a score with the shortest exact decimal form
func FormatConfidence(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
