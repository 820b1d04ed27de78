package async

import (
	"context"
	"fmt"
	"time"
)

// Future is the eventual outcome of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

func newFuture[U any]() *Future[U] {
	return &Future[U]{done: make(chan struct{})}
}

// settle must be called exactly once per future.
func (f *Future[U]) settle(res U, err error) {
	f.result = res
	f.err = err
	close(f.done)
}

// Resolve returns a future that is already complete with v.
func Resolve[U any](v U) *Future[U] {
	f := newFuture[U]()
	f.settle(v, nil)
	return f
}

// Reject returns a future that is already complete with err.
func Reject[U any](err error) *Future[U] {
	f := newFuture[U]()
	var zero U
	f.settle(zero, err)
	return f
}

// Await blocks until the computation completes and returns its result and error.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout waits at most timeout for completion.
// The future keeps running after ErrTimeout is returned.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.result, f.err
	case <-timer.C:
		var zero U
		return zero, ErrTimeout
	}
}

// Done returns a channel closed once the future completes.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports whether the future has completed, without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Async runs fn(ctx, param) in its own goroutine and returns a Future for its outcome.
// If ctx is already canceled, fn is not called and the future completes with ctx.Err().
// A panic inside fn is recovered and reported as an error wrapping ErrPanic.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := newFuture[U]()

	go func() {
		var (
			res U
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				var zero U
				res, err = zero, fmt.Errorf("%w: %v", ErrPanic, r)
			}
			f.settle(res, err)
		}()

		if err = ctx.Err(); err != nil {
			return
		}
		res, err = fn(ctx, param)
	}()

	return f
}

// WaitAll waits for the futures in order and returns their results.
// It stops at the first error, returning the results collected so far.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	for i, future := range futures {
		result, err := future.Await()
		results[i] = result
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// WaitAny returns the index, result and error of the first future to complete.
func WaitAny[U any](futures ...*Future[U]) (int, U, error) {
	if len(futures) == 0 {
		var zero U
		return -1, zero, ErrNoFutures
	}

	settled := make(chan Settled[U], len(futures))
	for i, future := range futures {
		go func(index int, f *Future[U]) {
			result, err := f.Await()
			settled <- Settled[U]{Index: index, Result: result, Err: err}
		}(i, future)
	}

	first := <-settled
	return first.Index, first.Result, first.Err
}

// Settled is the outcome of one future as observed by WaitSettled.
type Settled[U any] struct {
	Index  int // position of the future in the WaitSettled arguments
	Result U
	Err    error
}

// WaitSettled waits for every future and returns all outcomes in completion order.
// Errors never short-circuit the wait.
func WaitSettled[U any](futures ...*Future[U]) []Settled[U] {
	if len(futures) == 0 {
		return nil
	}

	ch := make(chan Settled[U], len(futures))
	for i, future := range futures {
		go func(index int, f *Future[U]) {
			result, err := f.Await()
			ch <- Settled[U]{Index: index, Result: result, Err: err}
		}(i, future)
	}

	out := make([]Settled[U], 0, len(futures))
	for range futures {
		out = append(out, <-ch)
	}
	return out
}
