package model

import "time"

// RunReport summarizes one pipeline run
type RunReport struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Source      string    `json:"source"` // Pages dir, text export, or base URL

	Documents DocumentStats `json:"documents"`

	Skips                map[SkipReason]int      `json:"skips,omitempty"`
	CandidatesByStrategy map[Strategy]int        `json:"candidates_by_strategy,omitempty"`
	ReconciledByMethod   map[CanonicalStatus]int `json:"reconciled_by_method,omitempty"`

	Candidates int   `json:"candidates"` // After deduplication
	Reconciled int   `json:"reconciled"`
	NoDate     []Key `json:"no_date,omitempty"` // Keys resolved from the reference dataset only

	Merge *MergeStats `json:"merge,omitempty"`
	LLM   *LLMSummary `json:"llm,omitempty"` // Optional digest, never affects reconciliation
}

// DocumentStats counts documents by outcome
type DocumentStats struct {
	Requested int `json:"requested"`
	Processed int `json:"processed"`
	Missing   int `json:"missing"`
	Stub      int `json:"stub"`
	Failed    int `json:"failed"`
}

// MergeStats counts master rows by merge outcome
type MergeStats struct {
	Rows          int  `json:"rows"`
	Curated       int  `json:"curated"`
	Updated       int  `json:"updated"`
	ReferenceOnly int  `json:"reference_only"`
	Unchanged     int  `json:"unchanged"`
	Unkeyed       int  `json:"unkeyed"`
	Changed       int  `json:"changed"` // Rows whose cells differ after the merge
	DryRun        bool `json:"dry_run,omitempty"`
}

// LLMSummary contains the optional LLM digest of a run
type LLMSummary struct {
	Enabled   bool     `json:"enabled"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	Strict    bool     `json:"strict"`               // Whether date verification was enforced
	SummaryMD string   `json:"summary_md,omitempty"` // Markdown digest
	Warnings  []string `json:"warnings,omitempty"`
}

// NewRunReport creates an empty report with initialized counters
func NewRunReport(runID, source string) *RunReport {
	return &RunReport{
		RunID:                runID,
		StartedAt:            time.Now().UTC(),
		Source:               source,
		Skips:                make(map[SkipReason]int),
		CandidatesByStrategy: make(map[Strategy]int),
		ReconciledByMethod:   make(map[CanonicalStatus]int),
	}
}

// AddSkip increments the counter for a skip reason
func (r *RunReport) AddSkip(reason SkipReason, n int) {
	if n == 0 {
		return
	}
	r.Skips[reason] += n
}
