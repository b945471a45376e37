// Package workpool runs independent, indexed jobs on a bounded set of
// goroutines and hands results back in submission order.
package workpool

import (
	"context"
	"runtime"
	"sync"
)

// Job is a unit of work identified by its position in the batch.
type Job[T any] struct {
	Index int
	Run   func(ctx context.Context) (T, error)
}

// Result carries the outcome of a Job.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Pool manages parallel job execution with configurable workers.
type Pool[T any] struct {
	workers int
	jobs    chan Job[T]
	results chan Result[T]
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a pool bound to ctx. A non-positive worker count selects
// runtime.NumCPU().
func New[T any](ctx context.Context, workers int) *Pool[T] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool[T]{
		workers: workers,
		jobs:    make(chan Job[T], workers*2),
		results: make(chan Result[T], workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool[T]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return

		case job, ok := <-p.jobs:
			if !ok {
				return
			}

			value, err := job.Run(p.ctx)

			select {
			case p.results <- Result[T]{Index: job.Index, Value: value, Err: err}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job, blocking while the queue is full.
func (p *Pool[T]) Submit(job Job[T]) error {
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Results returns the results channel.
func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}

// Stop closes the job queue, waits for in-flight jobs, and closes Results.
func (p *Pool[T]) Stop() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
	p.cancel()
}

// abort cancels the pool's context. Workers drop queued jobs and Submit
// fails; Stop still has to be called to close Results.
func (p *Pool[T]) abort() {
	p.cancel()
}

// Map evaluates fn for every index in [0, n) on up to workers goroutines
// and returns the values ordered by index. The first error by index wins;
// remaining jobs are cancelled once any job fails.
func Map[T any](ctx context.Context, workers, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	values := make([]T, n)
	if n == 0 {
		return values, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	pool := New[T](ctx, workers)
	pool.Start()

	go func() {
		defer pool.Stop()
		for i := 0; i < n; i++ {
			idx := i
			job := Job[T]{
				Index: idx,
				Run: func(ctx context.Context) (T, error) {
					return fn(ctx, idx)
				},
			}
			if err := pool.Submit(job); err != nil {
				return
			}
		}
	}()

	errs := make([]error, n)
	failed := false
	received := 0
	for res := range pool.Results() {
		received++
		values[res.Index] = res.Value
		if res.Err != nil {
			errs[res.Index] = res.Err
			if !failed {
				failed = true
				pool.abort()
			}
		}
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if received < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, context.Canceled
	}
	return values, nil
}
