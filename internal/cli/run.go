package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hilal/internal/llm"
	"github.com/ppiankov/hilal/internal/master"
	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/pipeline"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract, reconcile and merge into the master dataset",
	Long: `Run executes the full pipeline:
- Read every monthly page in the year range (pages directory or --remote)
- Extract candidate records with every strategy
- Reconcile one start date per (country, Hijri year, Hijri month)
- Merge the decisions into the master dataset, leaving curated rows alone

The master file is replaced atomically. With --dry-run the change count
is reported and nothing is written.

Example:
  hilal run --pages ./moonsighting_html --master master.csv
  hilal run --remote --master master.csv --reference reference.csv --dry-run
  hilal run --master master.csv --metrics-file hilal.prom --llm`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&pagesDir, "pages", "", "directory of saved monthly pages")
	runCmd.Flags().BoolVar(&remote, "remote", false, "fetch pages from the source site")
	runCmd.MarkFlagsMutuallyExclusive("pages", "remote")
	runCmd.Flags().StringVar(&masterPath, "master", "", "master dataset CSV to update")
	runCmd.Flags().StringVar(&referencePath, "reference", "", "reference dataset CSV")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report master changes without writing")

	addRangeFlags(runCmd)
	addHTTPFlags(runCmd)
	addOutputFlags(runCmd)

	// LLM flags
	runCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM run digest (requires OPENAI_API_KEY)")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runRun(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	cfg := s.cfg
	if cfg.Master.Path == "" {
		return fmt.Errorf("master dataset path is required (--master or master.path)")
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Load the master first: a schema error must stop the run before any
	// page is read.
	dataset, err := master.Load(cfg.Master.Path)
	if err != nil {
		return err
	}
	engine, err := s.engine()
	if err != nil {
		return err
	}
	keys, err := s.keys()
	if err != nil {
		return err
	}

	src, closeSource, err := s.source(remote)
	if err != nil {
		return err
	}
	defer func() { _ = closeSource() }()

	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		summarizer, err = llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			return fmt.Errorf("create LLM summarizer: %w", err)
		}
	}

	printBanner("Hilal Run")
	fmt.Fprintf(os.Stderr, "  Run:          %s\n", s.runID)
	fmt.Fprintf(os.Stderr, "  Source:       %s\n", src.Describe())
	fmt.Fprintf(os.Stderr, "  Documents:    %d\n", len(keys))
	fmt.Fprintf(os.Stderr, "  Master:       %s (%d rows)\n", cfg.Master.Path, len(dataset.Rows))
	if cfg.Master.ReferencePath != "" {
		fmt.Fprintf(os.Stderr, "  Reference:    %s\n", cfg.Master.ReferencePath)
	}
	if summarizer != nil && summarizer.IsEnabled() {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", summarizer.ProviderName(), cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	report := model.NewRunReport(s.runID, src.Describe())
	p := s.newPipeline(src, pipeline.Options{Summarizer: summarizer})

	// 1. Extract
	fmt.Fprintf(os.Stderr, "⚙️  Extracting candidates with %d workers...\n", cfg.Concurrency.Workers)
	extracted, err := p.ExtractDocuments(ctx, keys, report)
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Extracted %d candidates from %d documents\n",
		len(extracted.Candidates), report.Documents.Processed)

	// 2. Reconcile
	res := pipeline.Reconcile(engine, extracted.Ledger, report)
	fmt.Fprintf(os.Stderr, "✓ Reconciled %d keys (%d without date)\n", len(res.Records), len(res.NoDate))

	// 3. Merge
	stats := dataset.Merge(res.Records)
	stats.DryRun = cfg.Master.DryRun
	report.Merge = &stats
	s.metrics.ObserveMerge(stats)
	if cfg.Master.DryRun {
		fmt.Fprintf(os.Stderr, "✓ Dry run: %d of %d master rows would change\n", stats.Changed, stats.Rows)
	} else {
		if err := dataset.Save(cfg.Master.Path); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Master updated: %d of %d rows changed\n", stats.Changed, stats.Rows)
	}

	// 4. Optional digest
	p.Summarize(ctx, report, res.Records)

	// 5. Render
	r := s.renderer()
	var written []string
	for _, render := range []func() ([]string, error){
		func() ([]string, error) { return r.RenderCandidates(extracted.Candidates) },
		func() ([]string, error) { return r.RenderReconciled(res.Records) },
	} {
		paths, err := render()
		if err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		written = append(written, paths...)
	}
	if report.LLM != nil {
		path, err := r.RenderLLM(report.LLM)
		if err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if path != "" {
			written = append(written, path)
		}
	}

	p.Finish(report)
	paths, err := r.RenderReport(report)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	printWritten(append(written, paths...))

	if err := s.writeMetrics(); err != nil {
		return err
	}
	pipeline.PrintSummary(os.Stderr, report)
	return nil
}
