package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/hilal/internal/dates"
	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/segment"
	"github.com/ppiankov/hilal/internal/vocab"
)

const maxCellLength = 120

var countryMethod = regexp.MustCompile(`^(.+?)(?:\s*[-–]\s*|\s*\()(.*?)\)?$`)

// Table reads rows of (date cell, country and method cell). HTML pages
// are queried through their markup; text exports use the "| a | b |"
// rows the flattener produces.
type Table struct{}

// NewTable creates the strategy
func NewTable() *Table {
	return &Table{}
}

// Name returns the strategy tag
func (s *Table) Name() model.Strategy {
	return model.StrategyTable
}

// Extract emits one candidate per data row
func (s *Table) Extract(doc *Document) Result {
	var res Result
	if doc.Root != nil {
		s.extractMarkup(doc, &res)
		return res
	}
	s.extractRows(doc, &res)
	return res
}

func (s *Table) extractMarkup(doc *Document, res *Result) {
	if !model.ValidMonth(doc.Key.Month) {
		return
	}
	gq := goquery.NewDocumentFromNode(doc.Root)
	gq.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < 2 {
			return
		}
		dateCell := collapse(cells.Eq(0).Text())
		countryCell := collapse(cells.Eq(1).Text())
		if len(dateCell) > maxCellLength || len(countryCell) > maxCellLength {
			return
		}
		s.row(res, doc.Key.Year, doc.Key.Month, doc.ID, dateCell, countryCell)
	})
}

func (s *Table) extractRows(doc *Document, res *Result) {
	for _, seg := range doc.Segments {
		if seg.Kind != segment.KindContent || !strings.HasPrefix(seg.Text, "|") || !seg.Ctx.HasHijri() {
			continue
		}
		cells := splitPipeRow(seg.Text)
		if len(cells) < 2 {
			continue
		}
		s.row(res, seg.Ctx.Year, seg.Ctx.Month, segmentDocumentID(seg, doc), cells[0], cells[1])
	}
}

func (s *Table) row(res *Result, year, month int, docID, dateCell, countryCell string) {
	lower := strings.ToLower(dateCell)
	if strings.Contains(lower, "will be added") || strings.Contains(lower, "1st day") {
		return
	}
	if vocab.IsPlaceholder(dateCell) || vocab.IsPlaceholder(countryCell) {
		return
	}
	if countryCell == "" {
		return
	}

	d, ok := dates.Parse(dateCell)
	if !ok {
		res.skip(model.SkipUnparseableLine)
		return
	}

	country, method := splitCountryMethod(countryCell)
	res.emit(model.CandidateRecord{
		HijriYear:     year,
		HijriMonth:    month,
		GregorianDate: d,
		Country:       country,
		StatusRaw:     method,
		Strategy:      model.StrategyTable,
		DocumentID:    docID,
	})
}

// splitCountryMethod splits "Saudi Arabia (Local Sighting)" or
// "Egypt - Moon born before sunset" into country and method.
func splitCountryMethod(cell string) (string, string) {
	if m := countryMethod.FindStringSubmatch(cell); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(strings.TrimRight(m[2], ")"))
	}
	return strings.TrimSpace(cell), ""
}

func splitPipeRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}
