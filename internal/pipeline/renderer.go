package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/hilal/internal/llm"
	"github.com/ppiankov/hilal/internal/master"
	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/vocab"
)

// Output file names
const (
	CandidatesFile = "candidates"
	ReconciledFile = "reconciled"
	SummaryFile    = "summary.md"
	ReportFile     = "report.json"
	LLMFile        = "llm.md"
)

// Renderer writes run artifacts into an output directory
type Renderer struct {
	dir     string
	formats map[string]bool
}

// NewRenderer creates a renderer for the given formats (csv, json, md)
func NewRenderer(dir string, formats []string) *Renderer {
	set := make(map[string]bool, len(formats))
	for _, f := range formats {
		set[strings.ToLower(strings.TrimSpace(f))] = true
	}
	return &Renderer{dir: dir, formats: set}
}

// Dir returns the output directory
func (r *Renderer) Dir() string {
	return r.dir
}

// RenderCandidates writes candidates.csv / candidates.json
func (r *Renderer) RenderCandidates(candidates []model.CandidateRecord) ([]string, error) {
	rows := make([]model.ExportRow, len(candidates))
	for i, c := range candidates {
		rows[i] = model.CandidateRow(c, vocab.CountryName(c.CountryID))
	}
	return r.renderRows(CandidatesFile, rows)
}

// RenderReconciled writes reconciled.csv / reconciled.json
func (r *Renderer) RenderReconciled(records []model.ReconciledRecord) ([]string, error) {
	rows := make([]model.ExportRow, len(records))
	for i, rec := range records {
		rows[i] = model.ReconciledRow(rec)
	}
	return r.renderRows(ReconciledFile, rows)
}

func (r *Renderer) renderRows(base string, rows []model.ExportRow) ([]string, error) {
	sortRows(rows)

	var written []string
	if r.formats["csv"] {
		data, err := EncodeCSV(rows)
		if err != nil {
			return written, fmt.Errorf("encode %s.csv: %w", base, err)
		}
		path, err := r.write(base+".csv", data)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if r.formats["json"] {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return written, fmt.Errorf("encode %s.json: %w", base, err)
		}
		path, err := r.write(base+".json", append(data, '\n'))
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// RenderReport writes report.json and, when md is enabled, summary.md
func (r *Renderer) RenderReport(report *model.RunReport) ([]string, error) {
	var written []string

	if r.formats["json"] {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return written, fmt.Errorf("encode report: %w", err)
		}
		path, err := r.write(ReportFile, append(data, '\n'))
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if r.formats["md"] {
		path, err := r.write(SummaryFile, []byte(RenderMarkdown(report)))
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}

// RenderLLM writes llm.md when a digest was produced
func (r *Renderer) RenderLLM(summary *model.LLMSummary) (string, error) {
	md := llm.RenderSeparateMarkdown(summary)
	if md == "" {
		return "", nil
	}
	return r.write(LLMFile, []byte(md))
}

func (r *Renderer) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(r.dir, name)
	if err := master.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// sortRows orders rows by (year, month, country), keeping input order
// for equal keys
func sortRows(rows []model.ExportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a := model.Key{CountryID: rows[i].CountryID, Year: rows[i].HijriYear, Month: rows[i].HijriMonth}
		b := model.Key{CountryID: rows[j].CountryID, Year: rows[j].HijriYear, Month: rows[j].HijriMonth}
		return a.Less(b)
	})
}

// EncodeCSV renders rows with the export header
func EncodeCSV(rows []model.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(model.ExportHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row.Strings()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadCandidates reads an exported candidates file (.json or .csv)
func LoadCandidates(path string) ([]model.CandidateRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candidates: %w", err)
	}
	defer func() { _ = f.Close() }()

	var rows []model.ExportRow
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.NewDecoder(f).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode candidates: %w", err)
		}
	} else {
		rows, err = DecodeCSV(f)
		if err != nil {
			return nil, fmt.Errorf("decode candidates: %w", err)
		}
	}

	out := make([]model.CandidateRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.CandidateFromRow(row))
	}
	return out, nil
}

// DecodeCSV is the inverse of EncodeCSV. Columns are located by header
// name.
func DecodeCSV(r io.Reader) ([]model.ExportRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range model.ExportHeader {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var rows []model.ExportRow
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		get := func(col string) string {
			if i := index[col]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		year, err := strconv.Atoi(get("hijriYear"))
		if err != nil {
			return nil, fmt.Errorf("line %d: hijriYear: %w", line, err)
		}
		month, err := strconv.Atoi(get("hijriMonth"))
		if err != nil {
			return nil, fmt.Errorf("line %d: hijriMonth: %w", line, err)
		}
		date, err := model.ParseDate(get("gregorianStartDate"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		gregYear, _ := strconv.Atoi(get("gregorianYear"))

		rows = append(rows, model.ExportRow{
			HijriYear:          year,
			HijriMonth:         month,
			CountryID:          get("countryId"),
			CountryName:        get("countryName"),
			GregorianStartDate: date,
			GregorianYear:      gregYear,
			Method:             get("method"),
			MethodRaw:          get("methodRaw"),
			Source:             get("source"),
		})
	}
	return rows, nil
}

// RenderMarkdown renders the run summary
func RenderMarkdown(report *model.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Hilal run %s\n\n", report.RunID)
	fmt.Fprintf(&b, "- Source: %s\n", report.Source)
	fmt.Fprintf(&b, "- Started: %s\n", report.StartedAt.Format("2006-01-02 15:04:05 UTC"))
	if !report.CompletedAt.IsZero() {
		fmt.Fprintf(&b, "- Completed: %s\n", report.CompletedAt.Format("2006-01-02 15:04:05 UTC"))
	}
	b.WriteString("\n## Documents\n\n")
	b.WriteString("| Outcome | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Requested | %d |\n", report.Documents.Requested)
	fmt.Fprintf(&b, "| Processed | %d |\n", report.Documents.Processed)
	fmt.Fprintf(&b, "| Missing | %d |\n", report.Documents.Missing)
	fmt.Fprintf(&b, "| Stub | %d |\n", report.Documents.Stub)
	fmt.Fprintf(&b, "| Failed | %d |\n", report.Documents.Failed)

	if len(report.Skips) > 0 {
		b.WriteString("\n## Skips\n\n| Reason | Count |\n|---|---|\n")
		for _, reason := range sortedKeys(report.Skips) {
			fmt.Fprintf(&b, "| %s | %d |\n", reason, report.Skips[reason])
		}
	}

	fmt.Fprintf(&b, "\n## Candidates (%d)\n\n", report.Candidates)
	if len(report.CandidatesByStrategy) > 0 {
		b.WriteString("| Strategy | Count |\n|---|---|\n")
		for _, s := range model.Strategies {
			if n, ok := report.CandidatesByStrategy[s]; ok {
				fmt.Fprintf(&b, "| %s | %d |\n", s, n)
			}
		}
	}

	fmt.Fprintf(&b, "\n## Reconciled (%d)\n\n", report.Reconciled)
	if len(report.ReconciledByMethod) > 0 {
		b.WriteString("| Method | Count |\n|---|---|\n")
		for _, m := range sortedKeys(report.ReconciledByMethod) {
			fmt.Fprintf(&b, "| %s | %d |\n", m, report.ReconciledByMethod[m])
		}
	}

	if len(report.NoDate) > 0 {
		b.WriteString("\n## Keys without a date\n\n")
		b.WriteString("Decided from the reference dataset only.\n\n")
		for _, k := range report.NoDate {
			fmt.Fprintf(&b, "- %s %d %s\n", vocab.CountryName(k.CountryID), k.Year, model.MonthName(k.Month))
		}
	}

	if m := report.Merge; m != nil {
		b.WriteString("\n## Master merge\n\n")
		if m.DryRun {
			b.WriteString("Dry run, nothing written.\n\n")
		}
		b.WriteString("| Rows | Curated | Updated | Reference only | Unchanged | Unkeyed | Changed |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d | %d |\n",
			m.Rows, m.Curated, m.Updated, m.ReferenceOnly, m.Unchanged, m.Unkeyed, m.Changed)
	}

	return b.String()
}

// PrintSummary prints the run banner to w
func PrintSummary(w io.Writer, report *model.RunReport) {
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(w, "  Run Complete\n")
	_, _ = fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "  Run:         %s\n", report.RunID)
	_, _ = fmt.Fprintf(w, "  Documents:   %d processed, %d missing, %d stub, %d failed\n",
		report.Documents.Processed, report.Documents.Missing, report.Documents.Stub, report.Documents.Failed)
	_, _ = fmt.Fprintf(w, "  Candidates:  %d\n", report.Candidates)
	_, _ = fmt.Fprintf(w, "  Reconciled:  %d (%d without date)\n", report.Reconciled, len(report.NoDate))
	if m := report.Merge; m != nil {
		mode := "written"
		if m.DryRun {
			mode = "dry run"
		}
		_, _ = fmt.Fprintf(w, "  Master:      %d changed of %d rows (%s)\n", m.Changed, m.Rows, mode)
	}
	_, _ = fmt.Fprintf(w, "\n")
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
