package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/torosent/salvo/internal/metrics"
)

// ErrQueueProtocol reports a completion queue that did not carry exactly one
// handle per issued request.
var ErrQueueProtocol = errors.New("completion queue protocol violation")

// ExecutionError reports an execution that ended without an outcome.
type ExecutionError struct {
	Index int
	Cause interface{}
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution %d produced no outcome: %v", e.Index, e.Cause)
}

// Progress is a point-in-time view of a running test.
type Progress struct {
	Total        int
	Issued       int64
	Completed    int64
	InFlight     int64
	PeakInFlight int64
}

// Runner issues a fixed number of requests with bounded concurrency and
// aggregates their outcomes.
type Runner struct {
	opt Options

	issued    atomic.Int64
	completed atomic.Int64
	inFlight  atomic.Int64
	peak      atomic.Int64
}

// handle is the completion handle of one execution. done is closed once
// outcome or err is set.
type handle struct {
	index   int
	done    chan struct{}
	outcome metrics.Outcome
	err     error
}

func New(opt Options) (*Runner, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	return &Runner{opt: opt}, nil
}

// Run drives the test to exactly TotalRequests outcomes and returns the
// report. Cancelling ctx does not stop the run; only a fatal error does,
// in which case no report is produced.
func (r *Runner) Run(ctx context.Context) (metrics.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	est, err := metrics.NewEstimator(r.opt.Estimator)
	if err != nil {
		return metrics.Report{}, err
	}
	acc := metrics.NewAccumulator(est)
	start := time.Now()

	// The queue holds MaxInFlight-1 handles; the aggregator holds the last
	// slot while it waits on the head of the queue.
	queue := make(chan *handle, r.opt.MaxInFlight-1)

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.Go(func() error { return r.dispatch(gctx, queue) })
	g.Go(func() error { return r.aggregate(gctx, queue, acc) })
	if err := g.Wait(); err != nil {
		return metrics.Report{}, err
	}

	return acc.Report(metrics.RunInfo{
		CorrelationID: r.opt.CorrelationID,
		Duration:      time.Since(start),
		PeakInFlight:  r.peak.Load(),
	}), nil
}

// Progress reports live counters. It never touches the accumulator.
func (r *Runner) Progress() Progress {
	return Progress{
		Total:        r.opt.TotalRequests,
		Issued:       r.issued.Load(),
		Completed:    r.completed.Load(),
		InFlight:     r.inFlight.Load(),
		PeakInFlight: r.peak.Load(),
	}
}

// dispatch enqueues one handle per request in issue order, starting each
// execution once its handle has a slot, and closes the queue after the last.
func (r *Runner) dispatch(ctx context.Context, queue chan<- *handle) error {
	defer close(queue)
	for i := 0; i < r.opt.TotalRequests; i++ {
		h := &handle{index: i, done: make(chan struct{})}
		select {
		case queue <- h:
		case <-ctx.Done():
			return fmt.Errorf("%w: consumer stopped before handle %d was enqueued", ErrQueueProtocol, i)
		}
		r.start(ctx, h)
	}
	return nil
}

func (r *Runner) start(ctx context.Context, h *handle) {
	r.issued.Add(1)
	n := r.inFlight.Add(1)
	for {
		peak := r.peak.Load()
		if n <= peak || r.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	go func() {
		defer close(h.done)
		defer r.inFlight.Add(-1)
		defer func() {
			if rec := recover(); rec != nil {
				h.err = &ExecutionError{Index: h.index, Cause: rec}
			}
		}()
		h.outcome = r.opt.Executor.Execute(ctx)
	}()
}

// aggregate consumes handles in issue order until the queue is closed.
func (r *Runner) aggregate(ctx context.Context, queue <-chan *handle, acc *metrics.Accumulator) error {
	consumed := 0
	for h := range queue {
		consumed++
		if consumed > r.opt.TotalRequests {
			return fmt.Errorf("%w: received handle %d but only %d were issued", ErrQueueProtocol, consumed, r.opt.TotalRequests)
		}
		select {
		case <-h.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if h.err != nil {
			return h.err
		}
		acc.Add(h.outcome)
		r.completed.Add(1)
	}
	if consumed != r.opt.TotalRequests {
		return fmt.Errorf("%w: queue closed after %d of %d handles", ErrQueueProtocol, consumed, r.opt.TotalRequests)
	}
	return nil
}
