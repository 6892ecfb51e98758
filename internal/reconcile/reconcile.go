package reconcile

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/vocab"
)

const (
	defaultConfidence = 0.5
	referenceSource   = "reference"
)

// Options configures an Engine
type Options struct {
	// SourceBaseURL prefixes the page file name in the Source field
	SourceBaseURL string

	// Reference is the optional secondary dataset used when no candidate
	// for a key survives
	Reference []model.ReferenceEntry

	Logger *slog.Logger
}

// Engine reconciles a ledger into one record per key
type Engine struct {
	sourceBase string
	reference  map[model.Key]model.ReferenceEntry
	logger     *slog.Logger
}

// Result is the outcome of a reconciliation
type Result struct {
	Records   []model.ReconciledRecord
	NoDate    []model.Key // keys decided from the reference dataset only
	Discarded int         // candidates that could not compete
}

// New creates an engine
func New(opts Options) *Engine {
	e := &Engine{
		sourceBase: strings.TrimRight(opts.SourceBaseURL, "/"),
		reference:  make(map[model.Key]model.ReferenceEntry),
		logger:     opts.Logger,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	for _, ref := range opts.Reference {
		if ref.CountryID == "" {
			continue
		}
		if _, dup := e.reference[ref.Key]; !dup {
			e.reference[ref.Key] = ref
		}
	}
	return e
}

// Reconcile decides every key in the ledger and every reference key.
// It must run only after all candidates have been added. Records are
// returned in (year, month, country) order.
func (e *Engine) Reconcile(ledger *Ledger) Result {
	keys := ledger.Keys()
	seen := make(map[model.Key]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	for k := range e.reference {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	var res Result
	for _, key := range keys {
		cands := ledger.Candidates(key)
		rec, discarded, ok := e.Decide(key, cands)
		res.Discarded += discarded
		if !ok {
			continue
		}
		if rec.ReferenceOnly {
			res.NoDate = append(res.NoDate, key)
		}
		res.Records = append(res.Records, rec)
	}

	e.logger.Debug("reconciled",
		"keys", len(keys),
		"records", len(res.Records),
		"no_date", len(res.NoDate),
		"discarded", res.Discarded)
	return res
}

type scored struct {
	cand  model.CandidateRecord
	auth  Authority
	start model.Date
}

// Decide reduces the candidates of one key. It returns the decision, the
// number of candidates discarded before scoring, and false when neither
// a candidate nor a reference entry is available.
func (e *Engine) Decide(key model.Key, cands []model.CandidateRecord) (model.ReconciledRecord, int, bool) {
	var pool []scored
	discarded := 0
	for _, c := range cands {
		auth, ok := Rank(c)
		if !ok {
			discarded++
			continue
		}
		pool = append(pool, scored{cand: c, auth: auth, start: c.GregorianDate.AddDays(auth.Offset)})
	}

	if len(pool) == 0 {
		ref, ok := e.reference[key]
		if !ok {
			return model.ReconciledRecord{}, discarded, false
		}
		return referenceRecord(key, ref), discarded, true
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].auth.Priority != pool[j].auth.Priority {
			return pool[i].auth.Priority > pool[j].auth.Priority
		}
		return pool[i].start.Before(pool[j].start)
	})
	best := pool[0]

	return model.ReconciledRecord{
		Key:                key,
		CountryName:        vocab.CountryName(key.CountryID),
		GregorianStartDate: best.start,
		Method:             best.cand.Status,
		MethodRaw:          best.cand.StatusRaw,
		MethodLabel:        best.auth.Label,
		Confidence:         best.auth.Confidence,
		Notes:              fmt.Sprintf("moonsighting.com: %s [%s, %s]", best.cand.StatusRaw, best.cand.Strategy, best.cand.DocumentID),
		Source:             e.sourceURL(best.cand),
		Strategy:           best.cand.Strategy,
	}, discarded, true
}

func (e *Engine) sourceURL(c model.CandidateRecord) string {
	key, ok := model.ParseDocumentID(c.DocumentID)
	if !ok {
		key = model.DocumentKey{Year: c.HijriYear, Month: c.HijriMonth}
	}
	if e.sourceBase == "" {
		return key.FileName()
	}
	return e.sourceBase + "/" + key.FileName()
}

// referenceRecord fills method, confidence and notes from the reference
// dataset. No date is invented.
func referenceRecord(key model.Key, ref model.ReferenceEntry) model.ReconciledRecord {
	return model.ReconciledRecord{
		Key:           key,
		CountryName:   vocab.CountryName(key.CountryID),
		Method:        vocab.NormalizeStatus(ref.StatusRaw),
		MethodRaw:     ref.StatusRaw,
		MethodLabel:   ref.StatusRaw,
		Confidence:    referenceConfidence(ref.Confidence),
		Notes:         fmt.Sprintf("reference: %s (no date)", ref.StatusRaw),
		Source:        referenceSource,
		ReferenceOnly: true,
	}
}

func referenceConfidence(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || v > 1 {
		return defaultConfidence
	}
	return v
}
