package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/hilal/internal/cache"
	"github.com/ppiankov/hilal/internal/master"
	"github.com/ppiankov/hilal/internal/metrics"
	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/pipeline"
	"github.com/ppiankov/hilal/internal/reconcile"
	"github.com/ppiankov/hilal/internal/worker"
)

// Flag values shared by the commands. Each command registers the subset
// it understands; only flags set on the command line override the
// configuration.
var (
	pagesDir      string
	textFile      string
	idsFile       string
	remote        bool
	fromYear      int
	toYear        int
	outDir        string
	formats       []string
	workers       int
	timeout       time.Duration
	userAgent     string
	noCache       bool
	insecureTLS   bool
	httpProxy     string
	httpsProxy    string
	noRobots      bool
	referencePath string
	masterPath    string
	dryRun        bool
	metricsFile   string
	llmEnabled    bool
	llmModel      string
)

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&fromYear, "from", 0, "first Hijri year (default from config)")
	cmd.Flags().IntVar(&toYear, "to", 0, "last Hijri year (default from config)")
	cmd.Flags().StringVar(&idsFile, "ids", "", "file of document ids (e.g. 1438SHW), one per line; overrides --from/--to")
}

func addHTTPFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent document workers")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request HTTP timeout")
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable page cache (force fresh fetch)")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	cmd.Flags().BoolVar(&noRobots, "ignore-robots", false, "do not consult robots.txt")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outDir, "out", "", "output directory")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "output formats (csv, json, md)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("pages") {
		cfg.Source.PagesDir = pagesDir
	}
	if changed("from") {
		cfg.Source.FromYear = fromYear
	}
	if changed("to") {
		cfg.Source.ToYear = toYear
	}
	if changed("out") {
		cfg.Output.Dir = outDir
	}
	if changed("format") {
		cfg.Output.Formats = formats
	}
	if changed("workers") {
		cfg.Concurrency.Workers = workers
	}
	if changed("timeout") {
		cfg.HTTP.Timeout = timeout
	}
	if changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if changed("ignore-robots") {
		cfg.HTTP.RespectRobots = !noRobots
	}
	if changed("reference") {
		cfg.Master.ReferencePath = referencePath
	}
	if changed("master") {
		cfg.Master.Path = masterPath
	}
	if changed("dry-run") {
		cfg.Master.DryRun = dryRun
	}
	if changed("metrics-file") {
		cfg.MetricsFile = metricsFile
	}
	if changed("llm") && llmEnabled && cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
}

// session carries the resolved configuration and run-scoped collaborators
type session struct {
	cfg     *model.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	runID   string
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)

	return &session{
		cfg:     cfg,
		logger:  NewLogger(cfg.Log),
		metrics: metrics.New(),
		runID:   uuid.NewString(),
	}, nil
}

// keys returns the document keys of the run
func (s *session) keys() ([]model.DocumentKey, error) {
	if idsFile != "" {
		keys, err := worker.ReadDocumentKeysFromFile(idsFile)
		if err != nil {
			return nil, fmt.Errorf("read ids: %w", err)
		}
		return keys, nil
	}
	from, to := s.cfg.Source.FromYear, s.cfg.Source.ToYear
	if from <= 0 || to < from {
		return nil, fmt.Errorf("invalid year range %d..%d", from, to)
	}
	return model.DocumentKeys(from, to), nil
}

// localSource reads pages from the configured directory
func (s *session) localSource() *pipeline.DirSource {
	return pipeline.NewDirSource(s.cfg.Source.PagesDir, s.cfg.Source.MinDocumentBytes)
}

// remoteSource reads pages over HTTP through the page cache. The returned
// function releases the cache.
func (s *session) remoteSource() (*pipeline.HTTPSource, func() error, error) {
	cfg := s.cfg

	fetcher := pipeline.NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	fetcher.SetMaxAttempts(cfg.HTTP.MaxRetries)

	var pageCache cache.Cache
	closeFn := func() error { return nil }
	if cfg.Cache.Enabled {
		c, closer, err := cache.New(cfg.Cache)
		if err != nil {
			return nil, nil, fmt.Errorf("create cache: %w", err)
		}
		pageCache, closeFn = c, closer
	}

	var limiter *worker.Limiter
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	}

	src := pipeline.NewHTTPSource(pipeline.HTTPSourceOptions{
		BaseURL:         cfg.Source.BaseURL,
		Fetcher:         fetcher,
		Cache:           pageCache,
		RespectRobots:   cfg.HTTP.RespectRobots,
		Limiter:         limiter,
		PolitenessDelay: cfg.Source.PolitenessDelay,
		MinBytes:        cfg.Source.MinDocumentBytes,
		CacheTTL:        cfg.Cache.DiskTTL,
		Metrics:         s.metrics,
		Logger:          s.logger,
	})
	return src, closeFn, nil
}

// source picks the remote or local page source
func (s *session) source(useRemote bool) (pipeline.Source, func() error, error) {
	if useRemote {
		return s.remoteSource()
	}
	if _, err := os.Stat(s.cfg.Source.PagesDir); err != nil {
		return nil, nil, fmt.Errorf("pages directory: %w", err)
	}
	return s.localSource(), func() error { return nil }, nil
}

// engine builds the reconciliation engine, loading the reference dataset
// when one is configured
func (s *session) engine() (*reconcile.Engine, error) {
	opts := reconcile.Options{
		SourceBaseURL: s.cfg.Source.BaseURL,
		Logger:        s.logger,
	}
	if path := s.cfg.Master.ReferencePath; path != "" {
		entries, skipped, err := master.LoadReference(path)
		if err != nil {
			return nil, err
		}
		s.logger.Info("loaded reference dataset", "path", path, "entries", len(entries), "skipped", skipped)
		opts.Reference = entries
	}
	return reconcile.New(opts), nil
}

func (s *session) newPipeline(src pipeline.Source, opts pipeline.Options) *pipeline.Pipeline {
	opts.Workers = s.cfg.Concurrency.Workers
	opts.Metrics = s.metrics
	opts.Logger = s.logger
	return pipeline.NewPipeline(src, opts)
}

func (s *session) renderer() *pipeline.Renderer {
	return pipeline.NewRenderer(s.cfg.Output.Dir, s.cfg.Output.Formats)
}

// writeMetrics exports the run counters when a metrics file is configured
func (s *session) writeMetrics() error {
	if s.cfg.MetricsFile == "" {
		return nil
	}
	if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Metrics written: %s\n", s.cfg.MetricsFile)
	return nil
}

// signalContext is cancelled on interrupt
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printBanner(title string) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  %s\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
}

func printWritten(paths []string) {
	for _, p := range paths {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", p)
	}
}
