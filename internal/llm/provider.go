package llm

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/hilal/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a digest of a run with strict date mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the run report to summarize
	Report model.RunReport

	// Records are the reconciled month starts of the run
	Records []model.ReconciledRecord

	// AllowedDates is the STRICT allowlist of ISO dates the LLM can mention.
	// It holds exactly the reconciled start dates.
	AllowedDates []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	// Summary is the generated summary text
	Summary string

	// CitedDates are the ISO dates found in the summary (for verification)
	CitedDates []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai" or "" (disabled)
	Provider string

	// Model name (provider-specific)
	Model string

	APIKey string

	// BaseURL for OpenAI-compatible endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// Strict rejects digests that mention dates outside the reconciled set
	Strict bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		Strict:    true,
		MaxTokens: 800,
	}
}

// maxPromptRecords bounds the record listing in the prompt
const maxPromptRecords = 60

// BuildPrompt constructs the default prompt for a run digest
func BuildPrompt(report model.RunReport, records []model.ReconciledRecord) string {
	var b strings.Builder

	b.WriteString(`You are summarizing a Hijri month-start reconciliation run. The run decides, for each country and Hijri month, the Gregorian date the month began, from archived announcements.

CRITICAL RULES:
1. You MUST ONLY mention Gregorian dates that appear in the record list below, written as YYYY-MM-DD.
2. DO NOT compute, infer or convert any other date.
3. Describe methods (official declaration, sighting, calculation, completion, following another country) as the records state them.
4. If a country has no date, say it was decided from the reference dataset only.

`)

	fmt.Fprintf(&b, "Run Summary:\n")
	fmt.Fprintf(&b, "- Documents processed: %d (missing %d, stub %d, failed %d)\n",
		report.Documents.Processed, report.Documents.Missing, report.Documents.Stub, report.Documents.Failed)
	fmt.Fprintf(&b, "- Candidates: %d\n", report.Candidates)
	fmt.Fprintf(&b, "- Reconciled: %d (%d without date)\n", report.Reconciled, len(report.NoDate))

	b.WriteString("\nRecords:\n")
	b.WriteString(joinRecords(records))

	b.WriteString("\n\nProvide a short digest: where countries agreed, where they diverged, and which keys lack a date.")

	return b.String()
}

// Helper functions

func joinRecords(records []model.ReconciledRecord) string {
	if len(records) == 0 {
		return "(No reconciled records)"
	}
	var lines []string
	for i, r := range records {
		if i >= maxPromptRecords {
			lines = append(lines, fmt.Sprintf("... and %d more records", len(records)-maxPromptRecords))
			break
		}
		date := r.GregorianStartDate.String()
		if date == "" {
			date = "no date"
		}
		lines = append(lines, fmt.Sprintf("- %s %d %s: %s (%s)",
			r.CountryName, r.Year, model.MonthName(r.Month), date, r.MethodLabel))
	}
	return strings.Join(lines, "\n")
}

// AllowedDates returns the distinct reconciled start dates, sorted
func AllowedDates(records []model.ReconciledRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		d := r.GregorianStartDate.String()
		if d != "" && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

var isoDatePattern = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)

// extractDates extracts the distinct ISO dates mentioned in text
func extractDates(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, d := range isoDatePattern.FindAllString(text, -1) {
		if !seen[d] {
			seen[d] = true
			unique = append(unique, d)
		}
	}
	return unique
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
