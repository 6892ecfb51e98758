package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/hilal/internal/model"
)

// Summarizer produces the optional run digest. Its output is advisory
// and is generated after reconciliation.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer. An empty provider disables it.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider, "" when disabled
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary asks the provider for a digest of the run. Provider
// failures, including strict date violations, are reported as warnings
// on the returned summary rather than as errors.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.RunReport, records []model.ReconciledRecord) (*model.LLMSummary, error) {
	if s.provider == nil {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Enabled:  true,
		Provider: s.provider.Name(),
		Model:    s.config.Model,
		Strict:   s.config.Strict,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Enabled = false
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("LLM provider %s is not available", s.provider.Name()))
		return summary, nil
	}

	allowed := AllowedDates(records)
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:       report,
		Records:      records,
		AllowedDates: allowed,
		Model:        s.config.Model,
		MaxTokens:    s.config.MaxTokens,
	})
	if err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM summary generation failed: %v", err))
		return summary, nil
	}

	summary.SummaryMD = resp.Summary
	if resp.Model != "" {
		summary.Model = resp.Model
	}
	summary.Warnings = append(summary.Warnings,
		fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
		fmt.Sprintf("Verified %d dates against %d reconciled dates", len(resp.CitedDates), len(allowed)))

	return summary, nil
}

// RenderSeparateMarkdown renders the digest as a standalone Markdown file.
// Returns "" when there is nothing to render.
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** This digest was written by a language model from the reconciled records. ")
	b.WriteString("Month starts were determined independently of it; the reconciled files are authoritative.\n\n")

	fmt.Fprintf(&b, "- **Provider**: %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", summary.Model)
	}
	fmt.Fprintf(&b, "- **Strict Date Mode**: %t\n\n", summary.Strict)

	b.WriteString("## Summary\n\n")
	if summary.SummaryMD == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
