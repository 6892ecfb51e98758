package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ppiankov/hilal/internal/master"
	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/worker"
)

// DownloadStats counts mirrored pages by outcome
type DownloadStats struct {
	Saved    int
	Existing int
	Missing  int
	Stub     int
	Failed   int
}

// Downloader mirrors remote pages into a pages directory
type Downloader struct {
	remote  Source
	local   *DirSource
	workers int
	logger  *slog.Logger
}

// NewDownloader creates a downloader from remote into local
func NewDownloader(remote Source, local *DirSource, workers int, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{remote: remote, local: local, workers: workers, logger: logger}
}

type downloadOutcome int

const (
	outcomeSaved downloadOutcome = iota
	outcomeExisting
	outcomeMissing
	outcomeStub
	outcomeFailed
)

type downloadJob struct {
	key model.DocumentKey
	d   *Downloader
}

type downloadResult struct {
	key     model.DocumentKey
	outcome downloadOutcome
	err     error
}

func (r *downloadResult) GetError() error {
	return r.err
}

func (j *downloadJob) Execute(ctx context.Context) worker.Result {
	outcome, err := j.d.mirror(ctx, j.key)
	return &downloadResult{key: j.key, outcome: outcome, err: err}
}

// Download mirrors every key. Pages already present above the stub
// threshold are left alone.
func (d *Downloader) Download(ctx context.Context, keys []model.DocumentKey) (DownloadStats, error) {
	if err := os.MkdirAll(d.local.dir, 0o755); err != nil {
		return DownloadStats{}, fmt.Errorf("create pages directory: %w", err)
	}

	pool := worker.NewPoolWithContext(ctx, d.workers)
	pool.Start()
	for _, key := range keys {
		pool.Submit(&downloadJob{key: key, d: d})
	}
	results := pool.Wait()

	var stats DownloadStats
	for _, result := range results {
		r := result.(*downloadResult)
		switch r.outcome {
		case outcomeSaved:
			stats.Saved++
		case outcomeExisting:
			stats.Existing++
		case outcomeMissing:
			stats.Missing++
		case outcomeStub:
			stats.Stub++
		case outcomeFailed:
			stats.Failed++
			d.logger.Warn("download failed", "doc", r.key.ID(), "error", r.err)
		}
	}

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("download: %w", err)
	}
	return stats, nil
}

func (d *Downloader) mirror(ctx context.Context, key model.DocumentKey) (downloadOutcome, error) {
	path := d.local.Path(key)
	if info, err := os.Stat(path); err == nil && int(info.Size()) >= d.local.minBytes {
		return outcomeExisting, nil
	}

	body, err := d.remote.Fetch(ctx, key)
	if err != nil {
		switch model.SkipReasonFor(err) {
		case model.SkipMissingDocument:
			d.logger.Debug("page not found", "doc", key.ID())
			return outcomeMissing, nil
		case model.SkipStubDocument:
			d.logger.Debug("stub page", "doc", key.ID())
			return outcomeStub, nil
		}
		return outcomeFailed, err
	}

	if err := master.WriteFileAtomic(path, body, 0o644); err != nil {
		return outcomeFailed, fmt.Errorf("save %s: %w", key.ID(), err)
	}
	d.logger.Debug("page saved", "doc", key.ID(), "bytes", len(body))
	return outcomeSaved, nil
}
