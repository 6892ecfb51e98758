package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/hilal/internal/util"
)

// defaultFetchAttempts bounds FetchWithRetry, first try included
const defaultFetchAttempts = 3

// fetchSleepFunc is overridden in tests to skip backoff waits
var fetchSleepFunc = time.Sleep

// Fetcher fetches page bodies over HTTP
type Fetcher struct {
	httpClient  *http.Client
	userAgent   string
	maxBytes    int64
	maxAttempts int
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, insecureTLS bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: util.NewTransport(insecureTLS, httpProxy, httpsProxy, noProxy),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:   userAgent,
		maxBytes:    maxBytes,
		maxAttempts: defaultFetchAttempts,
	}
}

// SetMaxAttempts changes how many times FetchWithRetry tries a URL
func (f *Fetcher) SetMaxAttempts(n int) {
	if n > 0 {
		f.maxAttempts = n
	}
}

// Client returns the HTTP client, shared with the robots.txt checker
func (f *Fetcher) Client() *http.Client {
	return f.httpClient
}

// UserAgent returns the configured User-Agent
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// FetchResult contains the fetched page and response metadata
type FetchResult struct {
	HTML         string
	StatusCode   int
	ContentType  string
	LastModified string
	FinalURL     string
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Fetch retrieves the page at rawURL once
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		HTML:         string(body),
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		FinalURL:     resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry fetches rawURL, retrying transient failures (5xx, 429,
// connection errors) with linear backoff. Permanent failures are returned
// unwrapped on the first attempt.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		if !isRetryableFetchError(err) {
			return nil, err
		}
		lastErr = err

		if attempt == f.maxAttempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		fetchSleepFunc(time.Duration(attempt) * time.Second)
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", f.maxAttempts, lastErr)
}

// isRetryableFetchError reports whether err is worth another attempt
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.Code)
	}

	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, "unexpected status: "); ok {
		codeText, _, _ := strings.Cut(rest, " ")
		code, convErr := strconv.Atoi(codeText)
		return convErr == nil && retryableStatus(code)
	}
	return strings.HasPrefix(msg, "fetch:")
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
