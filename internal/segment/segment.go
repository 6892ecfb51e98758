// Package segment walks a flattened document line by line and tracks the
// Hijri year, Hijri month and Gregorian date that govern each line.
package segment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/hilal/internal/dates"
	"github.com/ppiankov/hilal/internal/model"
)

// State is the segmenter's position in the header grammar
type State int

const (
	NoContext State = iota
	YearSet
	MonthSet
	DateSet
)

func (s State) String() string {
	switch s {
	case YearSet:
		return "YearSet"
	case MonthSet:
		return "MonthSet"
	case DateSet:
		return "DateSet"
	}
	return "NoContext"
}

// Context is the parse context in force for a line
type Context struct {
	State State
	Year  int        // Hijri year, 0 when unset
	Month int        // Hijri month 1..12, 0 when unset
	Date  model.Date // Gregorian date of the current sub-section
}

// HasHijri reports whether both Hijri year and month are set, the
// precondition for emitting any candidate.
func (c Context) HasHijri() bool {
	return c.Year > 0 && model.ValidMonth(c.Month)
}

// Kind classifies a line
type Kind int

const (
	KindContent Kind = iota
	KindYearHeader
	KindMonthHeader
	KindDate
)

// Segment is one non-blank line and the context in force after it
type Segment struct {
	Line int // 1-based line number in the input
	Text string
	Kind Kind
	Ctx  Context
}

var (
	yearHeader  = regexp.MustCompile(`^#+\s*YEAR\s+(\d{4})\s+AH\b`)
	monthHeader = regexp.MustCompile(`^==\s*(\d{4})\s+([A-Z]{3})\s+-\s+.+?\(month\s+(\d{1,2})\)`)
)

// Segmenter is the finite-state walker. It holds no state between calls
// to Segment, so one value can be reused across documents.
type Segmenter struct{}

// New creates a segmenter
func New() *Segmenter {
	return &Segmenter{}
}

// Segment walks lines once and returns the non-blank lines with their
// context. Year headers reset the month and date, month headers set year
// and month and reset the date, date lines set the date only. Date lines
// seen before any Hijri year are inert.
func (s *Segmenter) Segment(lines []string) []Segment {
	var ctx Context
	out := make([]Segment, 0, len(lines))

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		kind := KindContent
		if next, ok := transition(ctx, line); ok {
			ctx = next.ctx
			kind = next.kind
		}

		out = append(out, Segment{Line: i + 1, Text: line, Kind: kind, Ctx: ctx})
	}
	return out
}

type step struct {
	ctx  Context
	kind Kind
}

func transition(ctx Context, line string) (step, bool) {
	if m := yearHeader.FindStringSubmatch(line); m != nil {
		year, _ := strconv.Atoi(m[1])
		return step{ctx: Context{State: YearSet, Year: year}, kind: KindYearHeader}, true
	}

	if m := monthHeader.FindStringSubmatch(line); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[3])
		if model.ValidMonth(month) {
			return step{ctx: Context{State: MonthSet, Year: year, Month: month}, kind: KindMonthHeader}, true
		}
		return step{}, false
	}

	if ctx.State == NoContext {
		return step{}, false
	}
	if d, ok := dates.ParseLine(line); ok {
		ctx.Date = d
		ctx.State = DateSet
		return step{ctx: ctx, kind: KindDate}, true
	}
	return step{}, false
}

// YearHeader renders the header line that opens a Hijri year
func YearHeader(year int) string {
	return fmt.Sprintf("# YEAR %d AH", year)
}

// MonthHeader renders the header line that opens a month section
func MonthHeader(key model.DocumentKey) string {
	return fmt.Sprintf("== %d %s - %s (month %d)", key.Year, model.MonthCode(key.Month), model.MonthName(key.Month), key.Month)
}

// Frame prefixes a single document's lines with the headers for its key,
// so that a per-page stream reads like a section of an aggregated export.
func Frame(key model.DocumentKey, lines []string) []string {
	framed := make([]string, 0, len(lines)+2)
	framed = append(framed, YearHeader(key.Year), MonthHeader(key))
	return append(framed, lines...)
}
