package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hilal/internal/pipeline"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Mirror monthly moon-sighting pages into the pages directory",
	Long: `Download fetches one page per (Hijri year, month) from the source site
and saves it as {year}{code}.html in the pages directory.

Pages already on disk are kept. Missing pages and stub pages are counted,
never saved. robots.txt and per-host rate limits are honored.

Example:
  hilal download
  hilal download --from 1440 --to 1445 --pages ./moonsighting_html
  hilal download --ids months.txt --workers 2`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&pagesDir, "pages", "", "directory to save pages into")
	addRangeFlags(downloadCmd)
	addHTTPFlags(downloadCmd)
	downloadCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")
}

func runDownload(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	keys, err := s.keys()
	if err != nil {
		return err
	}

	printBanner("Hilal Download")
	fmt.Fprintf(os.Stderr, "  Source:       %s\n", s.cfg.Source.BaseURL)
	fmt.Fprintf(os.Stderr, "  Pages dir:    %s\n", s.cfg.Source.PagesDir)
	fmt.Fprintf(os.Stderr, "  Documents:    %d\n", len(keys))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", s.cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(s.cfg.Source.PagesDir, 0o755); err != nil {
		return fmt.Errorf("create pages directory: %w", err)
	}

	src, closeSource, err := s.remoteSource()
	if err != nil {
		return err
	}
	defer func() { _ = closeSource() }()

	d := pipeline.NewDownloader(src, s.localSource(), s.cfg.Concurrency.Workers, s.logger)
	stats, err := d.Download(ctx, keys)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Saved:      %d\n", stats.Saved)
	fmt.Fprintf(os.Stderr, "✓ Existing:   %d\n", stats.Existing)
	fmt.Fprintf(os.Stderr, "  Missing:    %d\n", stats.Missing)
	fmt.Fprintf(os.Stderr, "  Stub:       %d\n", stats.Stub)
	if stats.Failed > 0 {
		fmt.Fprintf(os.Stderr, "✗ Failed:     %d\n", stats.Failed)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return s.writeMetrics()
}
