package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/pipeline"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract candidate month-start records from monthly pages",
	Long: `Extract runs every extraction strategy (country list, table,
declaration, sighting report) over each monthly page and writes the
deduplicated candidates to candidates.csv / candidates.json.

Pages are read from the pages directory, fetched from the source site
with --remote, or taken from an aggregated text export with --text.

Example:
  hilal extract --pages ./moonsighting_html --out ./out
  hilal extract --remote --from 1444 --to 1445
  hilal extract --text moonsighting_export.txt --format csv`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&pagesDir, "pages", "", "directory of saved monthly pages")
	extractCmd.Flags().StringVar(&textFile, "text", "", "aggregated text export with year and month headers")
	extractCmd.Flags().BoolVar(&remote, "remote", false, "fetch pages from the source site")
	extractCmd.MarkFlagsMutuallyExclusive("pages", "text", "remote")

	addRangeFlags(extractCmd)
	addHTTPFlags(extractCmd)
	addOutputFlags(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	var (
		report    *model.RunReport
		extracted *pipeline.Extracted
	)
	p := s.newPipeline(nil, pipeline.Options{})

	switch {
	case textFile != "":
		data, err := os.ReadFile(textFile)
		if err != nil {
			return fmt.Errorf("read text export: %w", err)
		}
		report = model.NewRunReport(s.runID, textFile)
		printBanner("Hilal Extract")
		fmt.Fprintf(os.Stderr, "  Text export:  %s\n\n", textFile)

		extracted = p.ExtractText(filepath.Base(textFile), string(data), report)

	default:
		keys, err := s.keys()
		if err != nil {
			return err
		}
		src, closeSource, err := s.source(remote)
		if err != nil {
			return err
		}
		defer func() { _ = closeSource() }()

		report = model.NewRunReport(s.runID, src.Describe())
		printBanner("Hilal Extract")
		fmt.Fprintf(os.Stderr, "  Source:       %s\n", src.Describe())
		fmt.Fprintf(os.Stderr, "  Documents:    %d\n", len(keys))
		fmt.Fprintf(os.Stderr, "  Workers:      %d\n\n", s.cfg.Concurrency.Workers)

		p = s.newPipeline(src, pipeline.Options{})
		extracted, err = p.ExtractDocuments(ctx, keys, report)
		if err != nil {
			return fmt.Errorf("extract failed: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "✓ Extracted %d candidates\n", len(extracted.Candidates))

	r := s.renderer()
	written, err := r.RenderCandidates(extracted.Candidates)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	printWritten(written)

	p.Finish(report)
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
