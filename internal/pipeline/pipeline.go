package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/hilal/internal/extract"
	"github.com/ppiankov/hilal/internal/llm"
	"github.com/ppiankov/hilal/internal/metrics"
	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/reconcile"
	"github.com/ppiankov/hilal/internal/worker"
)

// Pipeline orchestrates retrieval, extraction and reconciliation
type Pipeline struct {
	source     Source
	extractor  *extract.Extractor
	workers    int
	summarizer *llm.Summarizer // Optional LLM digest (nil if disabled)
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Options configures a Pipeline
type Options struct {
	Workers    int
	Registry   *extract.Registry // nil uses every built-in strategy
	Summarizer *llm.Summarizer
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// NewPipeline creates a pipeline reading pages from source
func NewPipeline(source Source, opts Options) *Pipeline {
	p := &Pipeline{
		source:     source,
		extractor:  extract.NewExtractor(opts.Registry),
		workers:    opts.Workers,
		summarizer: opts.Summarizer,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
	if p.workers <= 0 {
		p.workers = 1
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Extracted is the outcome of the extraction phase of a run
type Extracted struct {
	Ledger     *reconcile.Ledger
	Candidates []model.CandidateRecord // deduplicated, in document order
}

// ProcessDocument retrieves one page and extracts its candidates. The
// result depends only on the page.
func (p *Pipeline) ProcessDocument(ctx context.Context, key model.DocumentKey) (*extract.Extraction, error) {
	// 1. Retrieve
	body, err := p.source.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	// 2. Flatten and segment
	doc, err := extract.NewDocument(key, body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key.ID(), err)
	}

	// 3. Run the strategies
	extraction := p.extractor.ExtractDocument(doc)
	return &extraction, nil
}

// ExtractDocuments processes every key on the worker pool and appends the
// surviving candidates to a new ledger in document order. Missing and stub
// pages are counted as skips; other retrieval failures are counted as
// failed documents. Neither aborts the run.
func (p *Pipeline) ExtractDocuments(ctx context.Context, keys []model.DocumentKey, report *model.RunReport) (*Extracted, error) {
	report.Documents.Requested += len(keys)

	processor := worker.NewBatchProcessor(p, p.workers, 0, 0)
	results := processor.ProcessKeys(ctx, keys)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	out := &Extracted{Ledger: reconcile.NewLedger()}
	for _, res := range results {
		if res.Error != nil {
			p.recordFailure(res.Key, res.Error, report)
			continue
		}
		p.metrics.IncrementDocument("processed")
		report.Documents.Processed++
		p.absorb(*res.Extraction, out, report)
	}

	report.Candidates = len(out.Candidates)
	return out, nil
}

// ExtractText processes an aggregated text export that carries its own
// year and month headers.
func (p *Pipeline) ExtractText(id, text string, report *model.RunReport) *Extracted {
	report.Documents.Requested++
	report.Documents.Processed++
	p.metrics.IncrementDocument("processed")

	out := &Extracted{Ledger: reconcile.NewLedger()}
	doc := extract.NewTextDocument(id, text)
	p.absorb(p.extractor.ExtractDocument(doc), out, report)

	report.Candidates = len(out.Candidates)
	return out
}

func (p *Pipeline) absorb(ex extract.Extraction, out *Extracted, report *model.RunReport) {
	for reason, n := range ex.Skips {
		report.AddSkip(reason, n)
	}
	for strategy, n := range ex.ByStrategy {
		report.CandidatesByStrategy[strategy] += n
	}
	out.Ledger.Add(ex.Candidates...)
	out.Candidates = append(out.Candidates, ex.Candidates...)

	p.logger.Debug("document extracted",
		"doc", ex.DocumentID,
		"raw", ex.Raw,
		"candidates", len(ex.Candidates))
}

func (p *Pipeline) recordFailure(key model.DocumentKey, err error, report *model.RunReport) {
	reason := model.SkipReasonFor(err)
	switch reason {
	case model.SkipMissingDocument:
		report.Documents.Missing++
		p.metrics.IncrementDocument("missing")
	case model.SkipStubDocument:
		report.Documents.Stub++
		p.metrics.IncrementDocument("stub")
	default:
		report.Documents.Failed++
		p.metrics.IncrementDocument("failed")
		p.logger.Warn("document failed", "doc", key.ID(), "error", err)
		return
	}
	report.AddSkip(reason, 1)
	p.logger.Debug("document skipped", "doc", key.ID(), "reason", reason)
}

// Reconcile runs the reconciliation engine over a complete ledger and
// records the decisions in report
func Reconcile(engine *reconcile.Engine, ledger *reconcile.Ledger, report *model.RunReport) reconcile.Result {
	res := engine.Reconcile(ledger)

	report.Reconciled = len(res.Records)
	report.NoDate = res.NoDate
	for _, rec := range res.Records {
		report.ReconciledByMethod[rec.Method]++
	}
	return res
}

// Summarize attaches the optional LLM digest. It never changes the
// reconciled records and never fails the run.
func (p *Pipeline) Summarize(ctx context.Context, report *model.RunReport, records []model.ReconciledRecord) {
	if p.summarizer == nil || !p.summarizer.IsEnabled() {
		return
	}

	summary, err := p.summarizer.GenerateSummary(ctx, *report, records)
	if err != nil {
		p.logger.Warn("LLM summary generation failed", "error", err)
		return
	}
	report.LLM = summary
}

// Finish stamps the completion time and copies the counters to metrics
func (p *Pipeline) Finish(report *model.RunReport) {
	report.CompletedAt = time.Now().UTC()
	p.metrics.ObserveReport(report)
}
