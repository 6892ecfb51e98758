package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

func TestFetcher_ArchivePage(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Last-Modified", "Sun, 25 Jun 2017 10:00:00 GMT")
		_, _ = fmt.Fprint(w, shawwalPage)
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "hilal-test/1.0", 1<<20, false, "", "", "")
	res, err := f.FetchWithRetry(context.Background(), server.URL+"/1438shw.html")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotAgent != "hilal-test/1.0" {
		t.Errorf("user agent = %q", gotAgent)
	}
	if !strings.Contains(res.HTML, "Moonsighting for Shawwal 1438") {
		t.Errorf("body missing page title: %q", res.HTML)
	}
	if res.StatusCode != http.StatusOK || !strings.HasPrefix(res.ContentType, "text/html") {
		t.Errorf("unexpected metadata: %d %q", res.StatusCode, res.ContentType)
	}
	if res.LastModified == "" || !strings.HasSuffix(res.FinalURL, "/1438shw.html") {
		t.Errorf("unexpected metadata: %q %q", res.LastModified, res.FinalURL)
	}
}

func TestFetcher_MissingPageNotRetried(t *testing.T) {
	noSleep(t)
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "hilal-test", 1<<20, false, "", "", "")
	_, err := f.FetchWithRetry(context.Background(), server.URL+"/1399rmd.html")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("want *StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusNotFound {
		t.Errorf("code = %d", statusErr.Code)
	}
	if hits.Load() != 1 {
		t.Errorf("404 fetched %d times, want 1", hits.Load())
	}
}

func TestFetcher_RetriesUnavailable(t *testing.T) {
	noSleep(t)
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = fmt.Fprint(w, "<html>Ramadan 1440</html>")
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "hilal-test", 1<<20, false, "", "", "")
	res, err := f.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.HTML != "<html>Ramadan 1440</html>" || hits.Load() != 2 {
		t.Errorf("html %q after %d hits", res.HTML, hits.Load())
	}
}

func TestFetcher_GivesUp(t *testing.T) {
	var waits []time.Duration
	orig := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) { waits = append(waits, d) }
	defer func() { fetchSleepFunc = orig }()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "hilal-test", 1<<20, false, "", "", "")
	f.SetMaxAttempts(4)
	f.SetMaxAttempts(0) // ignored
	_, err := f.FetchWithRetry(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "giving up after 4 attempts") {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits.Load() != 4 {
		t.Errorf("hits = %d, want 4", hits.Load())
	}
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if fmt.Sprint(waits) != fmt.Sprint(want) {
		t.Errorf("backoff = %v, want %v", waits, want)
	}
}

func TestFetcher_BodyCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("x", 4096))
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "hilal-test", 100, false, "", "", "")
	res, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(res.HTML) != 100 {
		t.Errorf("body length = %d, want 100", len(res.HTML))
	}
}

func TestFetcher_RedirectLimit(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "hilal-test", 1<<20, false, "", "", "")
	_, err := f.Fetch(context.Background(), server.URL+"/a")
	if err == nil || !strings.Contains(err.Error(), "stopped after 3 redirects") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&StatusError{Code: 503, Status: "503 Service Unavailable"}, true},
		{&StatusError{Code: 429}, true},
		{&StatusError{Code: 404}, false},
		{fmt.Errorf("page: %w", &StatusError{Code: 500}), true},
		{errors.New("unexpected status: 502 Bad Gateway"), true},
		{errors.New("unexpected status: 410 Gone"), false},
		{errors.New("fetch: connection refused"), true},
		{errors.New("read body: unexpected EOF"), false},
	}
	for _, tt := range tests {
		if got := isRetryableFetchError(tt.err); got != tt.want {
			t.Errorf("isRetryableFetchError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestFetcher_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(5*time.Second, "hilal-test", 1<<20, false, "", "", "")
	f.SetMaxAttempts(1)
	if _, err := f.FetchWithRetry(ctx, server.URL); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
