package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/torosent/salvo/internal/metrics"
)

// ErrInvalidOptions is returned by New when the options cannot drive a run.
var ErrInvalidOptions = errors.New("invalid runner options")

// Executor performs one request and reports its outcome. Implementations
// must not panic or block forever; every failure belongs in the outcome.
type Executor interface {
	Execute(ctx context.Context) metrics.Outcome
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context) metrics.Outcome

func (f ExecutorFunc) Execute(ctx context.Context) metrics.Outcome {
	return f(ctx)
}

// Options configure the Runner.
type Options struct {
	TotalRequests int                   // requests to issue (0 produces an empty report)
	MaxInFlight   int                   // executions allowed in flight at once
	Executor      Executor              // request executor (required)
	Estimator     metrics.EstimatorKind // latency estimator ("" means p2)
	CorrelationID string                // copied into the report
}

func (o Options) validate() error {
	var problems []string
	if o.MaxInFlight < 1 {
		problems = append(problems, fmt.Sprintf("max in flight must be >= 1, got %d", o.MaxInFlight))
	}
	if o.TotalRequests < 0 {
		problems = append(problems, fmt.Sprintf("total requests must be >= 0, got %d", o.TotalRequests))
	}
	if o.Executor == nil {
		problems = append(problems, "executor is required")
	}
	if _, err := metrics.NewEstimator(o.Estimator); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(problems, "; "))
}
