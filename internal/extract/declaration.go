package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/hilal/internal/dates"
	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/segment"
	"github.com/ppiankov/hilal/internal/vocab"
)

const declarationStatus = "Official Declaration"

var (
	declarationLine = regexp.MustCompile(
		`^(?P<countries>[A-Z][\p{L}\w,\s&.'’-]*?)\s+` +
			`(?i:(?:has\s+|have\s+)?(?:offici?ally\s+|initially\s+|also\s+)?(?:declared|announced))\b(?P<rest>.*)$`)
	hijriPhrase  = regexp.MustCompile(`^\s*(?P<month>[\p{L}'’ -]+?)\s+(?P<day>\d{1,2}),?\s+(?P<year>\d{4})\b`)
	onDate       = regexp.MustCompile(`(?i)\b(?:to\s+be|will\s+be|is)\s+(?:on\s+)?(.*)$`)
	countrySplit = regexp.MustCompile(`,\s*|\s+and\s+|\s*&\s*`)
)

// Declaration reads announcement sentences such as "India, Pakistan and
// Bangladesh officially declared Shawwal 1, 1438 hijri to be on Sunday,
// June 25, 2017." and emits one candidate per named country.
type Declaration struct {
	parser *dates.Chain
}

// NewDeclaration creates the strategy with the default date grammars
func NewDeclaration() *Declaration {
	return &Declaration{parser: dates.DefaultChain()}
}

// Name returns the strategy tag
func (s *Declaration) Name() model.Strategy {
	return model.StrategyDeclaration
}

// Extract matches sentences line by line. A sentence whose date wrapped
// onto the next line is joined with that line once.
func (s *Declaration) Extract(doc *Document) Result {
	var res Result
	segs := doc.Segments

	for i := 0; i < len(segs); i++ {
		seg := segs[i]
		if seg.Kind != segment.KindContent || !seg.Ctx.HasHijri() {
			continue
		}
		m := declarationLine.FindStringSubmatch(seg.Text)
		if m == nil {
			continue
		}
		countries := m[declarationLine.SubexpIndex("countries")]
		rest := m[declarationLine.SubexpIndex("rest")]

		if !s.hijriDayOne(rest, seg.Ctx.Month) {
			res.skip(model.SkipUnparseableLine)
			continue
		}

		d, ok := s.gregorian(rest)
		if !ok {
			if next, has := nextContent(segs, i); has {
				if d, ok = s.gregorian(rest + " " + next.Text); ok {
					i++
				}
			}
		}
		if !ok {
			res.skip(model.SkipAmbiguousDeclaration)
			continue
		}

		for _, country := range SplitCountries(countries) {
			res.emit(model.CandidateRecord{
				HijriYear:     seg.Ctx.Year,
				HijriMonth:    seg.Ctx.Month,
				GregorianDate: d,
				Country:       country,
				StatusRaw:     declarationStatus,
				Strategy:      model.StrategyDeclaration,
				DocumentID:    segmentDocumentID(seg, doc),
			})
		}
	}
	return res
}

// hijriDayOne checks the optional "<Month> <day>, <year>" phrase after the
// verb. Without one the sentence is taken to concern the section month.
// A phrase naming an unknown month or a day other than 1 does not declare
// a month start.
func (s *Declaration) hijriDayOne(rest string, sectionMonth int) bool {
	m := hijriPhrase.FindStringSubmatch(rest)
	if m == nil {
		return true
	}
	month, ok := vocab.NormalizeHijriMonth(m[hijriPhrase.SubexpIndex("month")])
	if !ok {
		return false
	}
	day, _ := strconv.Atoi(m[hijriPhrase.SubexpIndex("day")])
	return day == 1 && month == sectionMonth
}

func (s *Declaration) gregorian(rest string) (model.Date, bool) {
	m := onDate.FindStringSubmatch(rest)
	if m == nil {
		return model.Date{}, false
	}
	return s.parser.Parse(m[1])
}

// SplitCountries splits a conjunctive list on commas, "and" and "&"
func SplitCountries(list string) []string {
	var out []string
	for _, part := range countrySplit.Split(list, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
