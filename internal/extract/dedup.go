package extract

import "github.com/ppiankov/hilal/internal/model"

// Dedup keeps the first candidate per (year, month, country) key.
// Observer reports are independent evidence and always pass through.
// Input order is priority order; callers concatenate strategy output in
// registry order before calling.
func Dedup(candidates []model.CandidateRecord) []model.CandidateRecord {
	seen := make(map[model.Key]bool)
	out := make([]model.CandidateRecord, 0, len(candidates))
	for _, c := range candidates {
		if c.Strategy == model.StrategySightingReport {
			out = append(out, c)
			continue
		}
		key := c.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
