// Package async runs detached background work whose failures are logged at
// the spawn site and never reach the caller.
package async

import (
	"context"
	"fmt"
	"time"

	"tarot-oracle-be/internal/pkg/logger"
)

// Go runs fn in its own goroutine. Errors and panics are logged under
// module and swallowed.
func Go(log logger.ILogger, module, task string, fn func() error) {
	go func() {
		if err := safeCall(fn); err != nil {
			log.Warn(module, "Background task failed", map[string]interface{}{
				"task":  task,
				"error": err.Error(),
			})
		}
	}()
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Future is the eventual result of a detached computation.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Start launches fn. Its panic is turned into an error.
func Start[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("panic: %v", r)
			}
		}()
		f.value, f.err = fn()
	}()
	return f
}

// Await waits up to timeout for the result. ok is false when the task
// failed, the timeout elapsed or ctx ended first; err says which.
func (f *Future[T]) Await(ctx context.Context, timeout time.Duration) (value T, ok bool, err error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-f.done:
		if f.err != nil {
			return value, false, f.err
		}
		return f.value, true, nil
	case <-t.C:
		return value, false, context.DeadlineExceeded
	case <-ctx.Done():
		return value, false, ctx.Err()
	}
}

// Done is closed once the computation has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
