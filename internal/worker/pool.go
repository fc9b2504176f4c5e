package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// JobFunc adapts a function to the Job interface
type JobFunc func(ctx context.Context) Result

// Execute calls f(ctx)
func (f JobFunc) Execute(ctx context.Context) Result { return f(ctx) }

type indexedJob struct {
	index int
	job   Job
}

// Pool runs jobs on a fixed number of workers bound to a parent context.
// Results are returned in submission order. A slot is nil when its job was
// never started or had not finished when the context ended.
type Pool struct {
	workers    int
	jobQueue   chan indexedJob
	results    []Result
	submitted  int
	sealed     bool
	closed     bool
	mu         sync.Mutex
	queueMu    sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a pool of workers whose jobs run under a child of ctx
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan indexedJob, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Size returns the pool size for n jobs capped at max workers.
func Size(n, max int) int {
	if n < max {
		return n
	}
	return max
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case ij, ok := <-p.jobQueue:
			if !ok {
				return
			}
			if p.ctx.Err() != nil {
				return
			}
			result := ij.job.Execute(p.ctx)
			p.store(ij.index, result)
		}
	}
}

func (p *Pool) store(index int, result Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sealed {
		return
	}
	p.results[index] = result
}

// Submit queues a job. It returns false when the pool's context has ended
// or the pool was already waited on; the job's slot stays nil.
func (p *Pool) Submit(job Job) bool {
	p.queueMu.RLock()
	defer p.queueMu.RUnlock()

	p.mu.Lock()
	if p.sealed {
		p.mu.Unlock()
		return false
	}
	index := p.submitted
	p.submitted++
	p.results = append(p.results, nil)
	p.mu.Unlock()

	if p.closed || p.ctx.Err() != nil {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- indexedJob{index: index, job: job}:
		return true
	}
}

// Wait closes the queue and returns results in submission order once every
// queued job has finished or the pool's context has ended, whichever is first.
// Jobs still running after the context ends are abandoned.
func (p *Pool) Wait() []Result {
	p.closeQueue()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-p.ctx.Done():
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sealed = true
	out := make([]Result, len(p.results))
	copy(out, p.results)
	p.cancelFunc()
	return out
}

func (p *Pool) closeQueue() {
	p.closeOnce.Do(func() {
		p.queueMu.Lock()
		defer p.queueMu.Unlock()
		p.closed = true
		close(p.jobQueue)
	})
}
