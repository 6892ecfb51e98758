package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces requests per archive host. Every host starts at the
// configured rate; robots.txt may only make a host slower.
type Limiter struct {
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
	rate  rate.Limit
	burst int
}

// NewLimiter creates a limiter allowing requestsPerSecond per host
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		hosts: make(map[string]*rate.Limiter),
		rate:  rate.Limit(requestsPerSecond),
		burst: burst,
	}
}

// Host returns the host part of rawURL, the key limits are kept under
func Host(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("parse URL: no host in %q", rawURL)
	}
	return parsed.Host, nil
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.hosts[host]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.hosts[host] = lim
	}
	return lim
}

// Acquire blocks until rawURL's host may be requested again, then sleeps
// the politeness delay on top
func (l *Limiter) Acquire(ctx context.Context, rawURL string, politeness time.Duration) error {
	host, err := Host(rawURL)
	if err != nil {
		return err
	}
	if err := l.forHost(host).Wait(ctx); err != nil {
		return err
	}
	if politeness <= 0 {
		return nil
	}
	timer := time.NewTimer(politeness)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SlowHost lowers host to one request per delay. It reports false and
// changes nothing when the host is already at least that slow.
func (l *Limiter) SlowHost(host string, delay time.Duration) bool {
	if delay <= 0 {
		return false
	}
	limit := rate.Every(delay)
	lim := l.forHost(host)
	if lim.Limit() <= limit {
		return false
	}
	lim.SetLimit(limit)
	return true
}

// HostRate returns the current requests-per-second for host
func (l *Limiter) HostRate(host string) float64 {
	return float64(l.forHost(host).Limit())
}
