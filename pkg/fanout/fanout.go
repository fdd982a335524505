// Package fanout provides a bounded-concurrency fan-out primitive with a
// per-task timeout and partial-failure tolerance. It is the single execution
// path for every parallel provider call in the engine: feature fusion,
// candidate resolution, and background enrichment all run through it.
package fanout

import (
	"context"
	"sync"
	"time"
)

// Default execution constants.
const (
	defaultWorkers = 4
	defaultTimeout = 10 * time.Second
)

// Task is a named unit of work. Name identifies the task in its Result.
type Task[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Result carries the outcome of one task. A task that errored or timed out
// has Err set; its Value is the zero value.
type Result[T any] struct {
	Name  string
	Value T
	Err   error
}

// OK reports whether the task produced a usable value.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Option applies a configuration option to a Group.
type Option func(*settings)

type settings struct {
	workers int
	timeout time.Duration
}

// WithWorkers bounds the number of concurrently running tasks.
func WithWorkers(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithTimeout sets the per-task timeout. Each task gets its own deadline so a
// slow task never delays the others beyond its own budget.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Run executes tasks with bounded concurrency and returns one Result per
// task, in task order. It never fails as a whole: individual task errors and
// timeouts are recorded in the results, not propagated. Run returns once
// every task has finished or exceeded its timeout; cancellation of ctx stops
// unstarted tasks and is reported as the tasks' context error.
func Run[T any](ctx context.Context, tasks []Task[T], opts ...Option) []Result[T] {
	s := settings{
		workers: defaultWorkers,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(&s)
	}

	results := make([]Result[T], len(tasks))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task[T]) {
			defer wg.Done()

			results[i].Name = task.Name

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				return
			}

			taskCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			value, err := task.Run(taskCtx)
			if err != nil {
				results[i].Err = err
				return
			}
			results[i].Value = value
		}(i, task)
	}

	wg.Wait()
	return results
}
