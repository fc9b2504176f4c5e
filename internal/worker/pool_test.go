package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockResult implements Result
type mockResult struct {
	id  int
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

// mockJob implements Job
type mockJob struct {
	id        int
	duration  time.Duration
	shouldErr bool
	executed  *int32 // atomic counter
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{id: j.id, err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{id: j.id, err: errors.New("job error")}
	}
	return &mockResult{id: j.id}
}

func TestNewPool(t *testing.T) {
	p1 := NewPool(context.Background(), 5)
	if p1.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p1.workers)
	}

	p2 := NewPool(context.Background(), 0)
	if p2.workers != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p2.workers)
	}

	p3 := NewPool(context.Background(), -1)
	if p3.workers != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p3.workers)
	}
}

func TestSize(t *testing.T) {
	cases := []struct{ n, max, want int }{
		{10, 6, 6},
		{3, 6, 3},
		{0, 4, 0},
	}
	for _, c := range cases {
		if got := Size(c.n, c.max); got != c.want {
			t.Errorf("Size(%d, %d) = %d, want %d", c.n, c.max, got, c.want)
		}
	}
}

func TestPool_ResultsInSubmissionOrder(t *testing.T) {
	pool := NewPool(context.Background(), 3)
	pool.Start()

	var executed int32
	count := 10

	for i := 0; i < count; i++ {
		// Later jobs finish first.
		pool.Submit(&mockJob{id: i, duration: time.Duration(count-i) * time.Millisecond, executed: &executed})
	}

	results := pool.Wait()

	if len(results) != count {
		t.Fatalf("expected %d results, got %d", count, len(results))
	}
	for i, r := range results {
		mr, ok := r.(*mockResult)
		if !ok {
			t.Fatalf("slot %d: unexpected result %v", i, r)
		}
		if mr.id != i {
			t.Errorf("slot %d holds result of job %d", i, mr.id)
		}
	}
	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executed jobs, got %d", count, executed)
	}
}

// concurrencyJob tracks max concurrent executions
type concurrencyJob struct {
	start    func()
	end      func()
	duration time.Duration
}

func (j *concurrencyJob) Execute(ctx context.Context) Result {
	if j.start != nil {
		j.start()
	}
	select {
	case <-time.After(j.duration):
	case <-ctx.Done():
	}
	if j.end != nil {
		j.end()
	}
	return &mockResult{}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 4
	pool := NewPool(context.Background(), workers)
	pool.Start()

	var current int32
	var maxConcurrent int32
	var completed int32
	var mu sync.Mutex

	totalJobs := 20

	for i := 0; i < totalJobs; i++ {
		pool.Submit(&concurrencyJob{
			start: func() {
				curr := atomic.AddInt32(&current, 1)
				mu.Lock()
				if curr > maxConcurrent {
					maxConcurrent = curr
				}
				mu.Unlock()
			},
			end: func() {
				atomic.AddInt32(&current, -1)
				atomic.AddInt32(&completed, 1)
			},
			duration: 10 * time.Millisecond,
		})
	}

	pool.Wait()

	if atomic.LoadInt32(&completed) != int32(totalJobs) {
		t.Errorf("expected %d completed jobs, got %d", totalJobs, completed)
	}

	mu.Lock()
	max := maxConcurrent
	mu.Unlock()

	if max > int32(workers) {
		t.Errorf("max concurrency %d exceeded workers %d", max, workers)
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	pool.Submit(&mockJob{shouldErr: true})
	pool.Submit(&mockJob{shouldErr: false})

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].GetError() == nil {
		t.Error("expected error in slot 0")
	}
	if results[1].GetError() != nil {
		t.Errorf("unexpected error in slot 1: %v", results[1].GetError())
	}
}

func TestPool_DeadlineLeavesUnfinishedSlotsNil(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	pool := NewPool(ctx, 1)
	pool.Start()

	pool.Submit(&mockJob{id: 0})
	// Ignores cancellation for longer than the deadline.
	pool.Submit(JobFunc(func(context.Context) Result {
		time.Sleep(500 * time.Millisecond)
		return &mockResult{id: 1}
	}))
	pool.Submit(&mockJob{id: 2})

	start := time.Now()
	results := pool.Wait()
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Fatalf("Wait did not honor deadline, took %v", elapsed)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(results))
	}
	if results[0] == nil {
		t.Error("expected first job to complete")
	}
	if results[1] != nil || results[2] != nil {
		t.Errorf("expected unfinished slots to be nil, got %v %v", results[1], results[2])
	}
}

func TestPool_SubmitAfterWait(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Wait()

	done := make(chan bool)
	go func() {
		done <- pool.Submit(&mockJob{})
	}()

	select {
	case ok := <-done:
		if ok {
			t.Error("expected Submit after Wait to report false")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Submit after Wait blocked")
	}
}

func TestPool_WaitCancelsRunningJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 2)
	pool.Start()

	started := make(chan struct{})
	ended := make(chan struct{})
	pool.Submit(&concurrencyJob{
		start:    func() { close(started) },
		end:      func() { close(ended) },
		duration: 5 * time.Second,
	})

	<-started
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Wait did not return after cancel")
	}
	select {
	case <-ended:
	case <-time.After(1 * time.Second):
		t.Fatal("running job was not cancelled")
	}
}
