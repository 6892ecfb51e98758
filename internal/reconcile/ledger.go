package reconcile

import (
	"sort"
	"sync"

	"github.com/ppiankov/hilal/internal/model"
)

// Ledger is the append-only multimap of candidates keyed by
// (country, year, month). Candidates keep their insertion order.
type Ledger struct {
	mu      sync.Mutex
	entries map[model.Key][]model.CandidateRecord
	total   int
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[model.Key][]model.CandidateRecord)}
}

// Add appends candidates. Candidates without a resolved country are ignored.
func (l *Ledger) Add(candidates ...model.CandidateRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range candidates {
		if c.CountryID == "" {
			continue
		}
		key := c.Key()
		l.entries[key] = append(l.entries[key], c)
		l.total++
	}
}

// Keys returns every key in (year, month, country) order
func (l *Ledger) Keys() []model.Key {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]model.Key, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Candidates returns a copy of the candidates recorded for key
func (l *Ledger) Candidates(key model.Key) []model.CandidateRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.CandidateRecord, len(l.entries[key]))
	copy(out, l.entries[key])
	return out
}

// All returns every candidate in key order
func (l *Ledger) All() []model.CandidateRecord {
	var out []model.CandidateRecord
	for _, k := range l.Keys() {
		out = append(out, l.Candidates(k)...)
	}
	return out
}

// Len returns the number of candidates recorded
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
