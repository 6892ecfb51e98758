package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/hilal/internal/dates"
	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/segment"
	"github.com/ppiankov/hilal/internal/vocab"
)

// officialListStatus marks a list entry that carries no method of its
// own; being listed in the OFFICIAL section is the declaration.
const officialListStatus = "Official list"

var officialHeadings = []*regexp.Regexp{
	regexp.MustCompile(`(?i)OFFICIAL\s+1st\s+Day\s+of\s+\w+`),
	regexp.MustCompile(`(?i)OFFICIAL\s+Date.+Different\s+Countries`),
	regexp.MustCompile(`(?i)OFFICIAL\s+Day\s+of\s+.+Different\s+Countries`),
	regexp.MustCompile(`(?i)OFFICIAL.+Different\s+Countries`),
}

var (
	listStop     = regexp.MustCompile(`(?i)^(Visibility|Sighting Reports|Ramadan Timetable|Moon Sighting)\b`)
	numberedLine = regexp.MustCompile(`^\d+\.\s*(.+?)(?:\s*\(([^)]*)\))?\s*$`)
	plainLine    = regexp.MustCompile(`^([A-Z][A-Za-z\s.'\-&]+?)(?:\s*\(([^)]*)\))?\s*$`)
	dateLike     = regexp.MustCompile(`^\w+\s+\d`)
)

// CountryList reads the numbered "1. Country (method)" lists that follow
// an OFFICIAL heading and its date line.
type CountryList struct{}

// NewCountryList creates the strategy
func NewCountryList() *CountryList {
	return &CountryList{}
}

// Name returns the strategy tag
func (s *CountryList) Name() model.Strategy {
	return model.StrategyCountryList
}

// Extract walks the segments once. A list entry without a method may
// absorb the next content line when that line is a placeholder or a
// date, forming a two-line block.
func (s *CountryList) Extract(doc *Document) Result {
	var res Result
	segs := doc.Segments

	active := false
	dated := false
	for i := 0; i < len(segs); i++ {
		seg := segs[i]

		switch seg.Kind {
		case segment.KindYearHeader, segment.KindMonthHeader:
			active, dated = false, false
			continue
		case segment.KindDate:
			if active {
				dated = true
			}
			continue
		}

		if isOfficialHeading(seg.Text) {
			active, dated = true, false
			continue
		}
		if !active {
			continue
		}
		if isListEnd(seg.Text) {
			active, dated = false, false
			continue
		}
		if !dated || !seg.Ctx.HasHijri() {
			continue
		}

		country, method, numbered, ok := parseListLine(seg.Text)
		if !ok {
			continue
		}

		c := model.CandidateRecord{
			HijriYear:     seg.Ctx.Year,
			HijriMonth:    seg.Ctx.Month,
			GregorianDate: seg.Ctx.Date,
			Country:       country,
			StatusRaw:     method,
			Strategy:      model.StrategyCountryList,
			DocumentID:    segmentDocumentID(seg, doc),
		}

		if method != "" {
			res.emit(c)
			continue
		}

		next, hasNext := nextContent(segs, i)
		switch {
		case hasNext && vocab.IsPlaceholder(next.Text):
			// Pending entry: no candidate for this country
			i++
		case hasNext && isDateLike(next.Text):
			i++
			if d, ok := dates.Parse(next.Text); ok {
				c.GregorianDate = d
			}
			c.StatusRaw = "Declaration: " + next.Text
			res.emit(c)
		case numbered:
			c.StatusRaw = officialListStatus
			res.emit(c)
		}
	}
	return res
}

func isOfficialHeading(line string) bool {
	for _, re := range officialHeadings {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func isListEnd(line string) bool {
	return strings.HasPrefix(line, "Home") ||
		strings.HasPrefix(line, "[Home") ||
		strings.Contains(line, "Back to Top") ||
		listStop.MatchString(line)
}

// parseListLine splits "3. Morocco (Local Sighting)" into country and
// method. Unnumbered lines qualify only when short and starting with a
// known country.
func parseListLine(line string) (country, method string, numbered, ok bool) {
	if m := numberedLine.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true, true
	}
	if len(line) >= 60 || !startsWithKnownCountry(line) {
		return "", "", false, false
	}
	if m := plainLine.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), false, true
	}
	return "", "", false, false
}

func startsWithKnownCountry(line string) bool {
	for _, country := range vocab.KnownCountries() {
		if len(line) >= len(country) && strings.EqualFold(line[:len(country)], country) {
			return true
		}
	}
	return false
}

// isDateLike accepts "June 26 (Monday)" as well as any short line that
// parses as a full date.
func isDateLike(line string) bool {
	if dateLike.MatchString(line) {
		return true
	}
	if len(line) >= 60 {
		return false
	}
	_, ok := dates.Parse(line)
	return ok
}

// nextContent returns the segment after i when it is plain content.
// Header and date lines are never absorbed.
func nextContent(segs []segment.Segment, i int) (segment.Segment, bool) {
	if i+1 >= len(segs) || segs[i+1].Kind != segment.KindContent {
		return segment.Segment{}, false
	}
	return segs[i+1], true
}
