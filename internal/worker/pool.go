package worker

import (
	"context"
	"sync"
)

// Job is one unit of work, usually a single archive page
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produced
type Result interface {
	GetError() error
}

type task struct {
	seq int
	job Job
}

// Pool runs jobs on a fixed number of goroutines. Wait returns results in
// submission order regardless of which worker finished first, so callers
// that log or count per job see the same sequence on every run.
type Pool struct {
	workers int
	tasks   chan task

	mu      sync.Mutex
	results []Result // indexed by submission sequence; nil until the job runs
	next    int

	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool with the given number of workers
func NewPool(workers int) *Pool {
	return NewPoolWithContext(context.Background(), workers)
}

// NewPoolWithContext creates a pool whose workers stop when ctx is done.
// Jobs still queued at that point are dropped.
func NewPoolWithContext(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		workers: workers,
		tasks:   make(chan task, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.tasks:
			if !ok {
				return
			}
			result := t.job.Execute(p.ctx)
			p.mu.Lock()
			p.results[t.seq] = result
			p.mu.Unlock()
		}
	}
}

// Submit queues a job. It blocks while the queue is full and returns
// without queuing once the pool is stopped. Submit must not be called
// after Wait.
func (p *Pool) Submit(job Job) {
	if p.ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	seq := p.next
	p.next++
	p.results = append(p.results, nil)
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
	case p.tasks <- task{seq: seq, job: job}:
	}
}

// Wait closes the queue, waits for the workers and returns the results of
// every job that ran, in submission order
func (p *Pool) Wait() []Result {
	p.closeOnce.Do(func() { close(p.tasks) })
	p.wg.Wait()
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, 0, len(p.results))
	for _, r := range p.results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Shutdown stops the workers without draining the queue
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
