// Package async provides generic futures for running work in goroutines and
// joining on its outcome.
//
// A Future is obtained from Async, which starts the supplied function in its
// own goroutine, or from Resolve and Reject, which return futures that are
// already complete. Callers block with Await, bound the wait with
// AwaitWithTimeout, select on Done or poll with IsComplete.
//
// Three joins are offered for groups of futures:
//
//   - WaitAll collects results in argument order and stops at the first error.
//   - WaitAny returns whichever future completes first.
//   - WaitSettled waits for every future and reports each outcome in the
//     order the futures completed. Completion order is a property of the
//     scheduler, not of the call site, so callers folding results must not
//     depend on it.
//
// # Usage
//
//	ctx := context.Background()
//	a := async.Async(ctx, "a", fetch)
//	b := async.Async(ctx, "b", fetch)
//
//	for _, s := range async.WaitSettled(a, b) {
//	    if s.Err != nil {
//	        log.Printf("task %d failed: %v", s.Index, s.Err)
//	        continue
//	    }
//	    merge(s.Result)
//	}
//
// # Error Handling
//
// Functions return the error produced by the user callback. A panic inside
// an Async callback is recovered and surfaced as an error wrapping ErrPanic.
// AwaitWithTimeout returns ErrTimeout; WaitAny with no futures returns
// ErrNoFutures.
//
// Async checks the context once before calling fn; cancellation after that
// point is up to fn.
package async
