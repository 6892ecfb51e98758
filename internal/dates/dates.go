// Package dates recognizes the Gregorian date phrases used across the
// archive's eras. Parsers are tried in a fixed priority order and the
// first one that yields a real calendar date wins.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/ppiankov/hilal/internal/model"
)

// Parser recognizes one date grammar inside a text fragment
type Parser interface {
	// Name identifies the grammar
	Name() string

	// Parse returns the first valid date found in text
	Parse(text string) (model.Date, bool)
}

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7,
	"aug": 8, "sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

// MonthNumber resolves a Gregorian month name or abbreviation
func MonthNumber(name string) (int, bool) {
	n, ok := monthNumbers[strings.ToLower(strings.TrimSuffix(name, "."))]
	return n, ok
}

const weekday = `(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)`

// RegexParser matches a pattern with named groups "month", "day" and
// "year" and tries every match until one forms a real date.
type RegexParser struct {
	name    string
	pattern *regexp.Regexp
}

// NewRegexParser compiles a grammar. The pattern must define the named
// groups month, day and year.
func NewRegexParser(name, pattern string) *RegexParser {
	return &RegexParser{name: name, pattern: regexp.MustCompile(pattern)}
}

// Name returns the grammar name
func (p *RegexParser) Name() string {
	return p.name
}

// Parse returns the first match in text that names a real calendar date
func (p *RegexParser) Parse(text string) (model.Date, bool) {
	monthIdx := p.pattern.SubexpIndex("month")
	dayIdx := p.pattern.SubexpIndex("day")
	yearIdx := p.pattern.SubexpIndex("year")

	for _, m := range p.pattern.FindAllStringSubmatch(text, -1) {
		month, ok := MonthNumber(m[monthIdx])
		if !ok {
			continue
		}
		day, err := strconv.Atoi(m[dayIdx])
		if err != nil {
			continue
		}
		year, err := strconv.Atoi(m[yearIdx])
		if err != nil {
			continue
		}
		if d, ok := model.NewDate(year, month, day); ok {
			return d, true
		}
	}
	return model.Date{}, false
}

// USLong matches "August 22, 2009 (Saturday)"
func USLong() *RegexParser {
	return NewRegexParser("us-long",
		`(?i)\b(?P<month>[a-z]+)\.?\s+(?P<day>\d{1,2}),?\s+(?P<year>\d{4})\s*\(`)
}

// UKLong matches "Friday, 20 July 2012"
func UKLong() *RegexParser {
	return NewRegexParser("uk-long",
		`(?i)\b`+weekday+`,?\s+(?P<day>\d{1,2})\s+(?P<month>[a-z]+)\.?,?\s+(?P<year>\d{4})`)
}

// TableCell matches the bare "May 27, 2017" form used in table cells
func TableCell() *RegexParser {
	return NewRegexParser("table-cell",
		`(?i)\b(?P<month>[a-z]+)\.?\s+(?P<day>\d{1,2}),?\s+(?P<year>\d{4})\b`)
}

// Chain tries parsers in registration order
type Chain struct {
	mu      sync.RWMutex
	parsers []Parser
}

// NewChain creates a chain from parsers in priority order
func NewChain(parsers ...Parser) *Chain {
	return &Chain{parsers: parsers}
}

// DefaultChain returns US long-form, then UK long-form, then table-cell
func DefaultChain() *Chain {
	return NewChain(USLong(), UKLong(), TableCell())
}

// Register appends a parser with the lowest priority
func (c *Chain) Register(p Parser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parsers = append(c.parsers, p)
}

// Names lists the parsers in priority order
func (c *Chain) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.parsers))
	for i, p := range c.parsers {
		names[i] = p.Name()
	}
	return names
}

// Parse returns the date from the first parser that matches
func (c *Chain) Parse(text string) (model.Date, bool) {
	d, _, ok := c.ParseNamed(text)
	return d, ok
}

// ParseNamed is Parse that also reports which grammar matched
func (c *Chain) ParseNamed(text string) (model.Date, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.parsers {
		if d, ok := p.Parse(text); ok {
			return d, p.Name(), true
		}
	}
	return model.Date{}, "", false
}

var defaultChain = DefaultChain()

// Parse uses the default chain
func Parse(text string) (model.Date, bool) {
	return defaultChain.Parse(text)
}

// Line grammars recognize a date that opens a line, as used for section
// date headers: "August 30, 2011 (Tuesday):" or "Friday, 20 July 2012:".
var (
	usLine = NewRegexParser("us-line",
		`^\s*(?P<month>[A-Za-z]+)\s+(?P<day>\d{1,2}),?\s+(?P<year>\d{4})\s*\(`)
	ukLine = NewRegexParser("uk-line",
		`^\s*`+weekday+`,?\s+(?P<day>\d{1,2})\s+(?P<month>[A-Za-z]+)\s+(?P<year>\d{4})`)
)

// ParseLine recognizes a date header line. Only the two long-form
// grammars qualify; a bare table-cell date does not open a section.
func ParseLine(line string) (model.Date, bool) {
	if d, ok := usLine.Parse(line); ok {
		return d, true
	}
	return ukLine.Parse(line)
}
