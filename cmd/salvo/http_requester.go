package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/salvo/internal/httpclient"
	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/tracing"
)

// httpRequester implements runner.Executor with one GET per call.
type httpRequester struct {
	client        *http.Client
	builder       *httpclient.RequestBuilder
	tracer        trace.Tracer
	checkStatus   bool
	correlationID string
}

// Execute performs the request and maps every failure into the outcome.
func (r *httpRequester) Execute(ctx context.Context) metrics.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracing.StartRequestSpan(ctx, r.tracer, r.builder.Target(), r.correlationID)

	start := time.Now()
	outcome := r.do(ctx, start)

	var attrs []attribute.KeyValue
	if outcome.HasStatus() {
		attrs = append(attrs, tracing.AttrStatusCode.Int(outcome.StatusCode))
	}
	for _, reason := range outcome.Reasons {
		attrs = append(attrs, tracing.AttrFailureReason.String(string(reason)))
	}
	tracing.EndSpan(span, outcome.Err, attrs...)
	return outcome
}

func (r *httpRequester) do(ctx context.Context, start time.Time) metrics.Outcome {
	req, err := r.builder.Build(ctx)
	if err != nil {
		return metrics.Failure(err, 0, time.Since(start))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return metrics.Failure(err, 0, time.Since(start))
	}

	_, readErr := io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	elapsed := time.Since(start)

	if readErr != nil {
		return metrics.Failure(&metrics.PhaseError{Phase: metrics.PhaseBody, Err: readErr}, 0, elapsed)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if r.checkStatus {
			return metrics.Failure(&metrics.StatusError{StatusCode: resp.StatusCode}, resp.StatusCode, elapsed)
		}
		return metrics.Failure(fmt.Errorf("response status %d", resp.StatusCode), resp.StatusCode, elapsed)
	}
	return metrics.Success(resp.StatusCode, elapsed)
}
