// Package runner provides the load generation engine for salvo.
//
// A [Runner] issues exactly [Options.TotalRequests] executions of an
// [Executor] while keeping at most [Options.MaxInFlight] of them unresolved,
// and folds every outcome into a [metrics.Report].
//
// # Basic Usage
//
//	r, err := runner.New(runner.Options{
//		TotalRequests: 1000,
//		MaxInFlight:   4,
//		Executor:      myExecutor,
//	})
//	if err != nil {
//		return err
//	}
//	report, err := r.Run(ctx)
//
// # Dispatch and Aggregation
//
// Two goroutines share a bounded completion queue. The dispatcher creates a
// completion handle per request, pushes it (blocking while the queue is
// full) and then starts the execution. The aggregator pops handles in issue
// order, waits for each to resolve and is the only goroutine that touches
// the accumulator. The blocking push is the only concurrency limit; there is
// no separate semaphore.
//
// Executions finish in any order but are consumed in issue order, so one
// slow request can hold back faster ones queued behind it.
//
// # Errors
//
// Request failures are outcomes, never errors. [Runner.Run] only fails when
// the queue protocol breaks ([ErrQueueProtocol]) or an execution ends
// without an outcome ([ExecutionError]).
//
// # Middleware
//
// [WithLogging] reports failed outcomes to a [FailureLogger].
package runner
