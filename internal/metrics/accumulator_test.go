package metrics_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/torosent/salvo/internal/metrics"
)

func TestAccumulatorEmptyReport(t *testing.T) {
	acc := metrics.NewAccumulator(nil)
	r := acc.Report(metrics.RunInfo{CorrelationID: "run-1"})

	if r.Succeeded != 0 || r.Failed != 0 || r.Requests != 0 {
		t.Fatalf("expected zero counters, got %+v", r)
	}
	if r.ResponseCodes == nil || len(r.ResponseCodes) != 0 {
		t.Fatalf("expected empty non-nil response codes, got %v", r.ResponseCodes)
	}
	if r.FailureReasons == nil || len(r.FailureReasons) != 0 {
		t.Fatalf("expected empty non-nil failure reasons, got %v", r.FailureReasons)
	}
	if r.Latency.Count != 0 {
		t.Fatalf("expected no latency data, got %+v", r.Latency)
	}
	if r.CorrelationID != "run-1" {
		t.Fatalf("expected correlation id run-1, got %q", r.CorrelationID)
	}
	if r.FailureRate() != 0 {
		t.Fatalf("expected zero failure rate, got %f", r.FailureRate())
	}
}

func TestAccumulatorMixedOutcomes(t *testing.T) {
	acc := metrics.NewAccumulator(metrics.NewP2Estimator())

	acc.Add(metrics.Success(200, 10*time.Millisecond))
	acc.Add(metrics.Success(204, 20*time.Millisecond))
	acc.Add(metrics.Failure(&metrics.StatusError{StatusCode: 500}, 500, 30*time.Millisecond))
	acc.Add(metrics.Failure(errors.New("reset"), 0, 40*time.Millisecond))

	r := acc.Report(metrics.RunInfo{Duration: 2 * time.Second})

	if r.Succeeded != 2 || r.Failed != 2 || r.Requests != 4 {
		t.Fatalf("unexpected counters %+v", r)
	}
	wantCodes := map[string]int64{"200": 1, "204": 1, "500": 1}
	if !reflect.DeepEqual(r.ResponseCodes, wantCodes) {
		t.Fatalf("response codes = %v, want %v", r.ResponseCodes, wantCodes)
	}
	if r.StatusCount() != 3 {
		t.Fatalf("expected 3 status-carrying outcomes, got %d", r.StatusCount())
	}
	wantReasons := map[metrics.Reason]int64{metrics.ReasonStatus: 1, metrics.ReasonOther: 1}
	if !reflect.DeepEqual(r.FailureReasons, wantReasons) {
		t.Fatalf("failure reasons = %v, want %v", r.FailureReasons, wantReasons)
	}
	if r.Latency.Min != 10*time.Millisecond || r.Latency.Max != 40*time.Millisecond {
		t.Fatalf("unexpected latency extrema %+v", r.Latency)
	}
	if r.RequestsPerSec != 2 {
		t.Fatalf("expected 2 rps, got %f", r.RequestsPerSec)
	}
	if r.FailureRate() != 0.5 {
		t.Fatalf("expected failure rate 0.5, got %f", r.FailureRate())
	}
}

func TestAccumulatorCountsEveryMatchingReason(t *testing.T) {
	acc := metrics.NewAccumulator(nil)
	acc.Add(metrics.Outcome{
		Err:     errors.New("dial tcp: i/o timeout"),
		Reasons: []metrics.Reason{metrics.ReasonConnect, metrics.ReasonTimeout},
	})

	r := acc.Report(metrics.RunInfo{})
	want := map[metrics.Reason]int64{metrics.ReasonConnect: 1, metrics.ReasonTimeout: 1}
	if !reflect.DeepEqual(r.FailureReasons, want) {
		t.Fatalf("failure reasons = %v, want %v", r.FailureReasons, want)
	}
	if r.Failed != 1 {
		t.Fatalf("expected a single failure, got %d", r.Failed)
	}
}

func TestReportIsDetachedFromAccumulator(t *testing.T) {
	acc := metrics.NewAccumulator(nil)
	acc.Add(metrics.Success(200, time.Millisecond))
	r := acc.Report(metrics.RunInfo{})

	acc.Add(metrics.Success(200, time.Millisecond))
	if r.ResponseCodes["200"] != 1 {
		t.Fatalf("report changed after snapshot: %v", r.ResponseCodes)
	}
	if acc.Count() != 2 {
		t.Fatalf("expected accumulator count 2, got %d", acc.Count())
	}
}

func TestReportJSONFields(t *testing.T) {
	acc := metrics.NewAccumulator(nil)
	acc.Add(metrics.Success(200, 5*time.Millisecond))
	acc.Add(metrics.Failure(&metrics.StatusError{StatusCode: 502}, 502, 15*time.Millisecond))

	data, err := json.Marshal(acc.Report(metrics.RunInfo{CorrelationID: "abc"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"correlation_id", "succeeded", "failed", "response_codes", "latency_histogram", "failure_reasons"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("expected key %q in %s", key, data)
		}
	}
	hist := decoded["latency_histogram"].(map[string]interface{})
	for _, key := range []string{"min_ms", "p50_ms", "p95_ms", "p99_ms", "max_ms"} {
		if _, ok := hist[key]; !ok {
			t.Errorf("expected histogram key %q", key)
		}
	}
	reasons := decoded["failure_reasons"].(map[string]interface{})
	if reasons["status"] != float64(1) {
		t.Errorf("expected status reason 1, got %v", reasons["status"])
	}
}

func TestSortedBuckets(t *testing.T) {
	codes := metrics.SortedCodes(map[string]int64{"500": 2, "200": 7, "404": 2})
	want := []metrics.Bucket{{Key: "200", Count: 7}, {Key: "404", Count: 2}, {Key: "500", Count: 2}}
	if !reflect.DeepEqual(codes, want) {
		t.Fatalf("SortedCodes() = %v, want %v", codes, want)
	}
	if metrics.SortedCodes(nil) != nil {
		t.Fatalf("expected nil rows for empty map")
	}

	reasons := metrics.SortedReasons(map[metrics.Reason]int64{metrics.ReasonTimeout: 3, metrics.ReasonConnect: 0})
	if len(reasons) != 1 || reasons[0].Key != "timeout" {
		t.Fatalf("SortedReasons() = %v", reasons)
	}
}
