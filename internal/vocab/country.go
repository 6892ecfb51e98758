package vocab

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/countries.yaml
var countriesYAML []byte

// Country is a member of the target country set
type Country struct {
	ID   string
	Name string
}

// CityCountry maps an observer city to its country
type CityCountry struct {
	City    string `yaml:"city"`
	Country string `yaml:"country"`
}

type targetEntry struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Aliases   []string `yaml:"aliases"`
	ExactOnly []string `yaml:"exact_only"`
}

type countryFile struct {
	Targets           []targetEntry     `yaml:"targets"`
	Known             []string          `yaml:"known"`
	KnownAliases      map[string]string `yaml:"known_aliases"`
	USStates          []string          `yaml:"us_states"`
	CanadianProvinces []string          `yaml:"canadian_provinces"`
	Cities            []CityCountry     `yaml:"cities"`
}

type containmentKey struct {
	key string
	id  string
}

type countryTables struct {
	targets      []Country
	names        map[string]string // id -> display name
	exact        map[string]string // folded alias -> id
	containment  []containmentKey
	known        []string // longest first
	knownAliases map[string]string
	usStates     map[string]bool
	provinces    map[string]bool
	cities       []CityCountry
}

var (
	countriesOnce sync.Once
	countries     *countryTables
)

func loadCountries() *countryTables {
	countriesOnce.Do(func() {
		t, err := parseCountries(countriesYAML)
		if err != nil {
			panic(fmt.Sprintf("vocab: embedded country table: %v", err))
		}
		countries = t
	})
	return countries
}

func parseCountries(data []byte) (*countryTables, error) {
	var f countryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse countries: %w", err)
	}
	if len(f.Targets) == 0 {
		return nil, fmt.Errorf("parse countries: no targets")
	}

	t := &countryTables{
		names:        make(map[string]string),
		exact:        make(map[string]string),
		knownAliases: make(map[string]string),
		usStates:     make(map[string]bool),
		provinces:    make(map[string]bool),
		cities:       f.Cities,
	}

	for _, e := range f.Targets {
		t.targets = append(t.targets, Country{ID: e.ID, Name: e.Name})
		t.names[e.ID] = e.Name

		for _, name := range append([]string{e.Name}, e.Aliases...) {
			key := Fold(name)
			t.exact[key] = e.ID
			t.containment = append(t.containment, containmentKey{key: key, id: e.ID})
		}
		for _, name := range e.ExactOnly {
			t.exact[Fold(name)] = e.ID
		}
	}

	// Longest key first so that equal start positions prefer the longer name
	sort.SliceStable(t.containment, func(i, j int) bool {
		return len(t.containment[i].key) > len(t.containment[j].key)
	})

	t.known = append(t.known, f.Known...)
	sort.SliceStable(t.known, func(i, j int) bool {
		return len(t.known[i]) > len(t.known[j])
	})

	for k, v := range f.KnownAliases {
		t.knownAliases[strings.ToLower(k)] = v
	}
	for _, s := range f.USStates {
		t.usStates[s] = true
	}
	for _, p := range f.CanadianProvinces {
		t.provinces[p] = true
	}

	return t, nil
}

// NormalizeCountry resolves raw country text to a target country id.
//
// The folded text is first looked up in the alias table. Failing that,
// the target names and aliases are searched as whole words inside the
// text; the earliest match wins, and the longer name wins at equal
// positions. Text naming a country outside the target set returns false.
func NormalizeCountry(raw string) (string, bool) {
	t := loadCountries()

	key := Fold(raw)
	if key == "" {
		return "", false
	}
	if id, ok := t.exact[key]; ok {
		return id, true
	}

	bestPos := -1
	bestID := ""
	for _, c := range t.containment {
		pos := wordIndex(key, c.key)
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos {
			bestPos = pos
			bestID = c.id
		}
	}
	if bestPos < 0 {
		return "", false
	}
	return bestID, true
}

// CountryName returns the display name of a target country id
func CountryName(id string) string {
	return loadCountries().names[id]
}

// TargetCountries returns the target country set in table order
func TargetCountries() []Country {
	t := loadCountries()
	out := make([]Country, len(t.targets))
	copy(out, t.targets)
	return out
}

// KnownCountries returns every recognized country name, longest first
func KnownCountries() []string {
	t := loadCountries()
	out := make([]string, len(t.known))
	copy(out, t.known)
	return out
}

// CanonicalKnown maps an alternate spelling of a known country
// ("S Africa", "United Kingdom") to its display form.
func CanonicalKnown(name string) string {
	if v, ok := loadCountries().knownAliases[strings.ToLower(name)]; ok {
		return v
	}
	return name
}

// IsUSState reports whether s is a US state name or postal code
func IsUSState(s string) bool {
	return loadCountries().usStates[s]
}

// IsCanadianProvince reports whether s is a Canadian province name or code
func IsCanadianProvince(s string) bool {
	return loadCountries().provinces[s]
}

// Cities returns the city-to-country table in match order
func Cities() []CityCountry {
	t := loadCountries()
	out := make([]CityCountry, len(t.cities))
	copy(out, t.cities)
	return out
}
