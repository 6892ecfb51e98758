package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/hilal/internal/vocab"
)

// Location is a city/country pair parsed from an observer attribution.
// Country is a display name ("USA", "South Africa", "France") and may be
// empty when no rule recognized one.
type Location struct {
	City    string
	Country string
}

// locationRule is one step of the fallback chain
type locationRule struct {
	name  string
	apply func(loc string) (Location, bool)
}

// locationRules run in order; the first rule that recognizes a country wins.
var locationRules = []locationRule{
	{"parenthetical-country", parentheticalCountry},
	{"country-suffix", countrySuffix},
	{"state-or-province", stateOrProvince},
	{"city-table", cityTable},
}

var (
	fromPrefix  = regexp.MustCompile(`(?i)^from\s+(?:near\s+)?`)
	parenGroup  = regexp.MustCompile(`\(([^)]*)\)`)
	parenStrip  = regexp.MustCompile(`\s*\([^)]*\)`)
	memberTag   = regexp.MustCompile(`\(MCW member\)\s*(.*)`)
	imamPrefix  = regexp.MustCompile(`^Imam\s+of\s+\S+\s+\S+\s+(?:Mosque|Masjid)\s*`)
	fromClause  = regexp.MustCompile(`(?i)\bfrom\s+(.*)`)
	afterParen  = regexp.MustCompile(`\)\s*(.*)`)
	reportedTag = regexp.MustCompile(`(?i)\s*reported:\s*$`)
)

// ParseLocation runs the fallback chain over a location string.
// When no rule matches, the whole string is kept as the city.
func ParseLocation(raw string) Location {
	loc := strings.TrimRight(strings.TrimSpace(raw), ".")
	loc = strings.TrimSpace(fromPrefix.ReplaceAllString(loc, ""))
	if loc == "" {
		return Location{}
	}

	for _, rule := range locationRules {
		if l, ok := rule.apply(loc); ok {
			return l
		}
	}
	return Location{City: loc}
}

// parentheticalCountry handles "AVIGNON (south FRANCE)"
func parentheticalCountry(loc string) (Location, bool) {
	for _, m := range parenGroup.FindAllStringSubmatch(loc, -1) {
		inner := strings.TrimSpace(m[1])
		for _, country := range vocab.KnownCountries() {
			if hasSuffixFold(inner, country) {
				city := strings.TrimSpace(parenStrip.ReplaceAllString(loc, ""))
				return Location{City: city, Country: vocab.CanonicalKnown(country)}, true
			}
		}
	}
	return Location{}, false
}

// countrySuffix handles "Cape Town, South Africa", longest country first
func countrySuffix(loc string) (Location, bool) {
	for _, country := range vocab.KnownCountries() {
		if hasSuffixFold(loc, country) {
			city := strings.TrimSpace(loc[:len(loc)-len(country)])
			city = strings.TrimSpace(strings.TrimRight(city, ","))
			return Location{City: city, Country: vocab.CanonicalKnown(country)}, true
		}
	}
	return Location{}, false
}

// stateOrProvince handles "Chicago, IL", "Toronto, Ontario" and "Dallas Texas"
func stateOrProvince(loc string) (Location, bool) {
	parts := strings.Split(loc, ",")
	last := strings.TrimSpace(parts[len(parts)-1])
	city := ""
	if len(parts) > 1 {
		city = strings.TrimSpace(strings.Join(parts[:len(parts)-1], ","))
	}
	if vocab.IsUSState(last) {
		return Location{City: city, Country: "USA"}, true
	}
	if vocab.IsCanadianProvince(last) {
		return Location{City: city, Country: "Canada"}, true
	}

	words := strings.Fields(loc)
	for _, n := range []int{2, 1} {
		if len(words) < n+1 {
			continue
		}
		if vocab.IsUSState(strings.Join(words[len(words)-n:], " ")) {
			city := strings.TrimSpace(strings.TrimRight(strings.Join(words[:len(words)-n], " "), ","))
			return Location{City: city, Country: "USA"}, true
		}
	}
	return Location{}, false
}

// cityTable handles locations that name only a well-known city
func cityTable(loc string) (Location, bool) {
	for _, c := range vocab.Cities() {
		if loc == c.City || strings.HasPrefix(loc, c.City+",") || strings.HasPrefix(loc, c.City+" ") {
			return Location{City: loc, Country: c.Country}, true
		}
	}
	return Location{}, false
}

// hasSuffixFold reports whether s ends with suffix, ignoring case, and the
// suffix starts at a word boundary.
func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	start := len(s) - len(suffix)
	if !strings.EqualFold(s[start:], suffix) {
		return false
	}
	if start == 0 {
		return true
	}
	c := s[start-1]
	return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9')
}

// ReporterLocation extracts the location from an attribution line such as
// "Name (MCW member) Imam of Masjid Al Noor Mosque Houston TX reported:"
// or "Name from Durban, South Africa reported:".
func ReporterLocation(line string) Location {
	line = strings.TrimSpace(reportedTag.ReplaceAllString(line, ""))

	// 1. Member tag: location follows it
	if m := memberTag.FindStringSubmatch(line); m != nil {
		loc := strings.TrimSpace(imamPrefix.ReplaceAllString(strings.TrimSpace(m[1]), ""))
		return ParseLocation(loc)
	}

	// 2. "from <location>"
	if m := fromClause.FindStringSubmatch(line); m != nil {
		return ParseLocation(m[1])
	}

	// 3. Text after a closing parenthesis
	if m := afterParen.FindStringSubmatch(line); m != nil {
		if loc := strings.TrimSpace(m[1]); loc != "" {
			return ParseLocation(loc)
		}
	}

	// 4. Any known country inside the line
	for _, country := range vocab.KnownCountries() {
		idx := strings.LastIndex(line, country)
		if idx < 0 {
			continue
		}
		parts := strings.Split(strings.TrimRight(line[:idx], ", "), ",")
		city := strings.TrimSpace(parts[len(parts)-1])
		return Location{City: city, Country: vocab.CanonicalKnown(country)}
	}

	return Location{}
}
