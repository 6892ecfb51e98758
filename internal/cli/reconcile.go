package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/pipeline"
	"github.com/ppiankov/hilal/internal/reconcile"
)

var candidatesFile string

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile exported candidates into one start date per country and month",
	Long: `Reconcile reads a candidates file written by 'hilal extract' and decides
one Gregorian start date per (country, Hijri year, Hijri month) using the
authority ranking. Keys with no usable candidate fall back to the
reference dataset when one is given.

Example:
  hilal reconcile --candidates ./out/candidates.csv --out ./out
  hilal reconcile --candidates candidates.json --reference reference.csv`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVar(&candidatesFile, "candidates", "", "candidates file (.csv or .json)")
	reconcileCmd.Flags().StringVar(&referencePath, "reference", "", "reference dataset CSV")
	_ = reconcileCmd.MarkFlagRequired("candidates")
	addOutputFlags(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	candidates, err := pipeline.LoadCandidates(candidatesFile)
	if err != nil {
		return err
	}

	printBanner("Hilal Reconcile")
	fmt.Fprintf(os.Stderr, "  Candidates:   %s (%d)\n", candidatesFile, len(candidates))
	if s.cfg.Master.ReferencePath != "" {
		fmt.Fprintf(os.Stderr, "  Reference:    %s\n", s.cfg.Master.ReferencePath)
	}
	fmt.Fprintf(os.Stderr, "\n")

	engine, err := s.engine()
	if err != nil {
		return err
	}

	report := model.NewRunReport(s.runID, candidatesFile)
	ledger := reconcile.NewLedger()
	for _, c := range candidates {
		if !c.Valid() || c.CountryID == "" {
			report.AddSkip(model.SkipUnparseableLine, 1)
			continue
		}
		ledger.Add(c)
		report.CandidatesByStrategy[c.Strategy]++
	}
	report.Candidates = ledger.Len()

	res := pipeline.Reconcile(engine, ledger, report)
	fmt.Fprintf(os.Stderr, "✓ Reconciled %d keys (%d without date, %d candidates discarded)\n",
		len(res.Records), len(res.NoDate), res.Discarded)

	r := s.renderer()
	written, err := r.RenderReconciled(res.Records)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	printWritten(written)

	s.newPipeline(nil, pipeline.Options{}).Finish(report)
	written, err = r.RenderReport(report)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	printWritten(written)

	if err := s.writeMetrics(); err != nil {
		return err
	}
	pipeline.PrintSummary(os.Stderr, report)
	return nil
}
