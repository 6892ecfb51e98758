package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/hilal/internal/cache"
	"github.com/ppiankov/hilal/internal/metrics"
	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/util"
	"github.com/ppiankov/hilal/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids a page
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Source retrieves the archived page for a (year, month) key
type Source interface {
	Fetch(ctx context.Context, key model.DocumentKey) ([]byte, error)
	Describe() string
}

// checkStub rejects bodies under the stub threshold
func checkStub(key model.DocumentKey, body []byte, minBytes int) error {
	if minBytes > 0 && len(body) < minBytes {
		return fmt.Errorf("%s: %d bytes: %w", key.ID(), len(body), model.ErrStubDocument)
	}
	return nil
}

// DirSource reads pages mirrored into a local directory
type DirSource struct {
	dir      string
	minBytes int
}

// NewDirSource creates a source over {dir}/{year}{code}.html files
func NewDirSource(dir string, minBytes int) *DirSource {
	return &DirSource{dir: dir, minBytes: minBytes}
}

// Describe names the directory
func (s *DirSource) Describe() string {
	return s.dir
}

// Path returns the file a key maps to
func (s *DirSource) Path(key model.DocumentKey) string {
	return filepath.Join(s.dir, key.FileName())
}

// Fetch reads the page for key. A missing file is ErrMissingDocument and
// a file under the stub threshold is ErrStubDocument.
func (s *DirSource) Fetch(ctx context.Context, key model.DocumentKey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key.ID(), model.ErrMissingDocument)
	}
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	if err := checkStub(key, body, s.minBytes); err != nil {
		return nil, err
	}
	return body, nil
}

// HTTPSource fetches pages from the live archive
type HTTPSource struct {
	baseURL    string
	fetcher    *Fetcher
	cache      cache.Cache         // optional
	robots     *util.RobotsChecker // optional
	limiter    *worker.Limiter
	politeness time.Duration
	minBytes   int
	cacheTTL   time.Duration
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// HTTPSourceOptions configures an HTTPSource
type HTTPSourceOptions struct {
	BaseURL         string
	Fetcher         *Fetcher
	Cache           cache.Cache
	RespectRobots   bool
	Limiter         *worker.Limiter
	PolitenessDelay time.Duration
	MinBytes        int
	CacheTTL        time.Duration
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
}

// NewHTTPSource creates a source over {base}/{year}{code}.html
func NewHTTPSource(opts HTTPSourceOptions) *HTTPSource {
	s := &HTTPSource{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		fetcher:    opts.Fetcher,
		cache:      opts.Cache,
		limiter:    opts.Limiter,
		politeness: opts.PolitenessDelay,
		minBytes:   opts.MinBytes,
		cacheTTL:   opts.CacheTTL,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
	if s.limiter == nil {
		s.limiter = worker.NewLimiter(2, 1)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if opts.RespectRobots {
		s.robots = util.NewRobotsChecker(s.fetcher.UserAgent(), s.fetcher.Client())
	}
	return s
}

// Describe names the base URL
func (s *HTTPSource) Describe() string {
	return s.baseURL
}

// URL returns the page address for key
func (s *HTTPSource) URL(key model.DocumentKey) string {
	return PageURL(s.baseURL, key)
}

// PageURL returns {base}/{year}{code}.html
func PageURL(baseURL string, key model.DocumentKey) string {
	return strings.TrimRight(baseURL, "/") + "/" + key.FileName()
}

// Fetch retrieves the page for key, from cache when possible. 404 and 410
// responses are ErrMissingDocument.
func (s *HTTPSource) Fetch(ctx context.Context, key model.DocumentKey) ([]byte, error) {
	pageURL := s.URL(key)
	cacheKey := cache.CacheKey(pageURL)

	if s.cache != nil {
		if body, ok := s.cache.Get(cacheKey); ok {
			s.metrics.IncrementFetch("cache")
			if err := checkStub(key, body, s.minBytes); err != nil {
				return nil, err
			}
			return body, nil
		}
	}

	if s.robots != nil {
		allowed, crawlDelay, err := s.robots.CanFetch(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("robots: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", pageURL, ErrDisallowed)
		}
		if host, err := worker.Host(pageURL); err == nil && s.limiter.SlowHost(host, crawlDelay) {
			s.logger.Debug("applied crawl delay", "host", host, "delay", crawlDelay, "rps", s.limiter.HostRate(host))
		}
	}

	if err := s.limiter.Acquire(ctx, pageURL, s.politeness); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	result, err := s.fetcher.FetchWithRetry(ctx, pageURL)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && (statusErr.Code == http.StatusNotFound || statusErr.Code == http.StatusGone) {
			return nil, fmt.Errorf("%s: %w", key.ID(), model.ErrMissingDocument)
		}
		return nil, err
	}
	s.metrics.IncrementFetch("network")

	body := []byte(result.HTML)
	if err := checkStub(key, body, s.minBytes); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(cacheKey, body, s.cacheTTL); err != nil {
			s.logger.Warn("cache write failed", "url", pageURL, "error", err)
		}
	}
	return body, nil
}
