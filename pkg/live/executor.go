package live

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultWorkers bounds concurrent query execution when no executor is configured.
const DefaultWorkers = 4

// Executor is a bounded pool for query execution. Work handed to it runs off
// the caller's goroutine; at most the configured number of jobs run at once.
type Executor struct {
	sem     *semaphore.Weighted
	workers int
}

// NewExecutor creates an executor running at most workers jobs concurrently.
func NewExecutor(workers int) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{sem: semaphore.NewWeighted(int64(workers)), workers: workers}
}

// Workers returns the concurrency limit.
func (e *Executor) Workers() int { return e.workers }

type result[T any] struct {
	v   T
	err error
}

// Run executes fn on a pool goroutine and waits for its result.
// If ctx ends first Run returns ctx.Err(); fn keeps running to completion and
// its result is discarded.
func Run[T any](ctx context.Context, e *Executor, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	out := make(chan result[T], 1)
	go func() {
		defer e.sem.Release(1)
		v, err := fn(ctx)
		out <- result[T]{v: v, err: err}
	}()
	select {
	case r := <-out:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
