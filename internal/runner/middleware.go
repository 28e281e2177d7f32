package runner

import (
	"context"

	"github.com/torosent/salvo/internal/metrics"
)

// FailureLogger logs failed requests.
type FailureLogger interface {
	LogFailure(outcome metrics.Outcome)
}

// loggingExecutor wraps an Executor with failure logging.
type loggingExecutor struct {
	inner  Executor
	logger FailureLogger
}

// WithLogging wraps an Executor to log failed outcomes. The outcome itself
// is passed through unchanged.
func WithLogging(exec Executor, logger FailureLogger) Executor {
	if logger == nil {
		return exec
	}
	return &loggingExecutor{
		inner:  exec,
		logger: logger,
	}
}

func (l *loggingExecutor) Execute(ctx context.Context) metrics.Outcome {
	outcome := l.inner.Execute(ctx)
	if !outcome.Succeeded() {
		l.logger.LogFailure(outcome)
	}
	return outcome
}
