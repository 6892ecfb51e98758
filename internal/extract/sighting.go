package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/segment"
)

var (
	reporterLine   = regexp.MustCompile(`^(.+?)\s+reported:\s*$`)
	observerStatus = regexp.MustCompile(`(?i)^(Seen|Not Seen|30 days completed)\s*$`)
)

// SightingReport reads individual observer reports: an attribution line
// ending in "reported:" followed by a status line.
type SightingReport struct{}

// NewSightingReport creates the strategy
func NewSightingReport() *SightingReport {
	return &SightingReport{}
}

// Name returns the strategy tag
func (s *SightingReport) Name() model.Strategy {
	return model.StrategySightingReport
}

// Extract pairs each attribution with the following non-blank line. Both
// lines are consumed only when the second is an observer status.
func (s *SightingReport) Extract(doc *Document) Result {
	var res Result
	segs := doc.Segments

	for i := 0; i < len(segs); i++ {
		seg := segs[i]
		if seg.Kind != segment.KindContent || !seg.Ctx.HasHijri() {
			continue
		}
		if !reporterLine.MatchString(seg.Text) {
			continue
		}
		next, ok := nextContent(segs, i)
		if !ok {
			continue
		}
		m := observerStatus.FindStringSubmatch(next.Text)
		if m == nil {
			continue
		}
		i++

		loc := ReporterLocation(seg.Text)
		res.emit(model.CandidateRecord{
			HijriYear:     seg.Ctx.Year,
			HijriMonth:    seg.Ctx.Month,
			GregorianDate: seg.Ctx.Date,
			Country:       loc.Country,
			City:          loc.City,
			StatusRaw:     canonicalObserverStatus(m[1]),
			Strategy:      model.StrategySightingReport,
			DocumentID:    segmentDocumentID(seg, doc),
		})
	}
	return res
}

func canonicalObserverStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "seen":
		return "Seen"
	case "not seen":
		return "Not Seen"
	}
	return "30 days completed"
}
