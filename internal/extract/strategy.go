// Package extract turns source documents into candidate records. Each
// strategy reads the same segmented stream independently; the extractor
// runs them in a fixed order, resolves countries and removes in-document
// duplicates.
package extract

import (
	"strings"

	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/vocab"
)

// Strategy recognizes one presentation format of month-start evidence
type Strategy interface {
	// Name returns the strategy tag recorded on every candidate
	Name() model.Strategy

	// Extract reads the document and returns its candidates. Lines that
	// match no grammar are skipped, never reported as errors.
	Extract(doc *Document) Result
}

// Result is the output of one strategy over one document
type Result struct {
	Candidates []model.CandidateRecord
	Skips      map[model.SkipReason]int
}

func (r *Result) skip(reason model.SkipReason) {
	if r.Skips == nil {
		r.Skips = make(map[model.SkipReason]int)
	}
	r.Skips[reason]++
}

// emit normalizes and appends a candidate. Records without a Hijri month
// or a Gregorian date are dropped.
func (r *Result) emit(c model.CandidateRecord) {
	c.Country = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(c.Country), "-–—"))
	c.StatusRaw = strings.TrimSpace(c.StatusRaw)
	c.Status = vocab.NormalizeStatus(c.StatusRaw)
	if id, ok := vocab.NormalizeCountry(c.Country); ok {
		c.CountryID = id
	}
	if !c.Valid() {
		r.skip(model.SkipUnparseableLine)
		return
	}
	r.Candidates = append(r.Candidates, c)
}

// Registry holds the strategies in deduplication priority order
type Registry struct {
	strategies []Strategy
}

// NewRegistry creates a registry with the built-in strategies
func NewRegistry() *Registry {
	registry := &Registry{}

	registry.Register(NewCountryList())
	registry.Register(NewTable())
	registry.Register(NewDeclaration())
	registry.Register(NewSightingReport())

	return registry
}

// Register appends a strategy. Registration order is priority order.
func (r *Registry) Register(s Strategy) {
	r.strategies = append(r.strategies, s)
}

// Strategies returns the registered strategies in order
func (r *Registry) Strategies() []Strategy {
	out := make([]Strategy, len(r.strategies))
	copy(out, r.strategies)
	return out
}

// Find returns the strategy with the given name
func (r *Registry) Find(name model.Strategy) (Strategy, bool) {
	for _, s := range r.strategies {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Only restricts the registry to the named strategies, keeping order.
// Unknown names are ignored.
func (r *Registry) Only(names ...model.Strategy) *Registry {
	want := make(map[model.Strategy]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := &Registry{}
	for _, s := range r.strategies {
		if want[s.Name()] {
			out.Register(s)
		}
	}
	return out
}
