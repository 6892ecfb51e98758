package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/hilal/internal/extract"
	"github.com/ppiankov/hilal/internal/model"
)

// Processor retrieves and extracts one archived page
type Processor interface {
	ProcessDocument(ctx context.Context, key model.DocumentKey) (*extract.Extraction, error)
}

// DocumentJob represents one page to process
type DocumentJob struct {
	Key       model.DocumentKey
	Processor Processor
	Limiter   *Limiter // optional; nil disables throttling
}

// Execute executes the document job
func (j *DocumentJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &DocumentResult{Key: j.Key, Error: err}
	}
	if j.Limiter != nil {
		if err := j.Limiter.Acquire(ctx, limiterKey, 0); err != nil {
			return &DocumentResult{Key: j.Key, Error: err}
		}
	}

	extraction, err := j.Processor.ProcessDocument(ctx, j.Key)
	if err != nil {
		return &DocumentResult{Key: j.Key, Error: err}
	}
	return &DocumentResult{Key: j.Key, Extraction: extraction}
}

// limiterKey is the single bucket shared by all document jobs
const limiterKey = "documents://batch"

// DocumentResult represents the result of a document job
type DocumentResult struct {
	Key        model.DocumentKey
	Extraction *extract.Extraction
	Error      error
}

// GetError returns the error from the document result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor processes many pages concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. A positive
// requestsPerSecond caps how fast jobs start across all workers.
func NewBatchProcessor(processor Processor, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	b := &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
	if requestsPerSecond > 0 {
		b.limiter = NewLimiter(requestsPerSecond, burst)
	}
	return b
}

// ProcessKeys processes the pages concurrently. Results come back sorted
// by (year, month) whatever order the workers finished in; a page whose
// job never ran because ctx ended carries the context error.
func (b *BatchProcessor) ProcessKeys(ctx context.Context, keys []model.DocumentKey) []*DocumentResult {
	if len(keys) == 0 {
		return []*DocumentResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for _, key := range keys {
		pool.Submit(&DocumentJob{
			Key:       key,
			Processor: b.processor,
			Limiter:   b.limiter,
		})
	}

	results := pool.Wait()

	byKey := make(map[model.DocumentKey]*DocumentResult, len(results))
	for _, result := range results {
		r := result.(*DocumentResult)
		byKey[r.Key] = r
	}

	out := make([]*DocumentResult, 0, len(keys))
	seen := make(map[model.DocumentKey]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		if r, ok := byKey[key]; ok {
			out = append(out, r)
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out = append(out, &DocumentResult{Key: key, Error: err})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Year != out[j].Key.Year {
			return out[i].Key.Year < out[j].Key.Year
		}
		return out[i].Key.Month < out[j].Key.Month
	})

	return out
}

// ProcessFile reads document ids from a file and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*DocumentResult, error) {
	keys, err := ReadDocumentKeysFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read document ids: %w", err)
	}

	return b.ProcessKeys(ctx, keys), nil
}

// ReadDocumentKeysFromFile reads document ids ("1438SHW", one per line).
// Blank lines and # comments are skipped, duplicates are dropped, and
// ids are matched case-insensitively.
func ReadDocumentKeysFromFile(filePath string) ([]model.DocumentKey, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var keys []model.DocumentKey
	seen := make(map[model.DocumentKey]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, ok := model.ParseDocumentID(strings.ToUpper(line))
		if !ok {
			return nil, fmt.Errorf("line %d: invalid document id %q", lineNo, line)
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return keys, nil
}
