package extract

import (
	"github.com/ppiankov/hilal/internal/model"
)

// Extraction is the outcome of extracting one document
type Extraction struct {
	DocumentID string
	Candidates []model.CandidateRecord
	Raw        int // candidates before country resolution and dedup
	ByStrategy map[model.Strategy]int
	Skips      map[model.SkipReason]int
}

// Extractor runs every registered strategy over a document
type Extractor struct {
	registry *Registry
}

// NewExtractor creates an extractor. A nil registry uses the built-in
// strategies.
func NewExtractor(registry *Registry) *Extractor {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Extractor{registry: registry}
}

// ExtractDocument runs the strategies in registry order, drops candidates
// whose country is outside the target set and removes duplicates. The
// result depends on the document alone.
func (e *Extractor) ExtractDocument(doc *Document) Extraction {
	out := Extraction{
		DocumentID: doc.ID,
		ByStrategy: make(map[model.Strategy]int),
		Skips:      make(map[model.SkipReason]int),
	}

	var resolved []model.CandidateRecord
	for _, s := range e.registry.Strategies() {
		res := s.Extract(doc)
		for reason, n := range res.Skips {
			out.Skips[reason] += n
		}
		out.Raw += len(res.Candidates)
		for _, c := range res.Candidates {
			if c.CountryID == "" {
				out.Skips[model.SkipUnresolvableCountry]++
				continue
			}
			resolved = append(resolved, c)
		}
	}

	out.Candidates = Dedup(resolved)
	for _, c := range out.Candidates {
		out.ByStrategy[c.Strategy]++
	}
	return out
}

// Strategies returns the names of the strategies this extractor runs
func (e *Extractor) Strategies() []model.Strategy {
	var names []model.Strategy
	for _, s := range e.registry.Strategies() {
		names = append(names, s.Name())
	}
	return names
}
