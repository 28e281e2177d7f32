package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"gopkg.in/yaml.v3"
)

type jsonReport struct {
	CorrelationID  string           `json:"correlation_id"`
	Requests       int64            `json:"requests"`
	Succeeded      int64            `json:"succeeded"`
	Failed         int64            `json:"failed"`
	ResponseCodes  map[string]int64 `json:"response_codes"`
	FailureReasons map[string]int64 `json:"failure_reasons"`
	PeakInFlight   int64            `json:"peak_in_flight"`
	Latency        struct {
		Count int64   `json:"count"`
		MinMs float64 `json:"min_ms"`
		P50Ms float64 `json:"p50_ms"`
		P95Ms float64 `json:"p95_ms"`
		P99Ms float64 `json:"p99_ms"`
		MaxMs float64 `json:"max_ms"`
	} `json:"latency_histogram"`
}

func runJSON(t *testing.T, args ...string) (jsonReport, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append(args, "--output", "json"), &stdout, &stderr)
	var report jsonReport
	if stdout.Len() > 0 {
		if decodeErr := json.Unmarshal(stdout.Bytes(), &report); decodeErr != nil {
			t.Fatalf("invalid JSON report: %v\n%s", decodeErr, stdout.String())
		}
	}
	return report, stderr.String(), err
}

func statusServer(t *testing.T, status int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestRunAllSuccessful(t *testing.T) {
	server, hits := statusServer(t, http.StatusOK)

	report, _, err := runJSON(t, server.URL, "-n", "10", "-c", "3")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if hits.Load() != 10 {
		t.Fatalf("server saw %d requests, want 10", hits.Load())
	}
	if report.Succeeded != 10 || report.Failed != 0 {
		t.Fatalf("succeeded/failed = %d/%d, want 10/0", report.Succeeded, report.Failed)
	}
	if len(report.ResponseCodes) != 1 || report.ResponseCodes["200"] != 10 {
		t.Fatalf("response_codes = %v, want {200: 10}", report.ResponseCodes)
	}
	if len(report.FailureReasons) != 0 {
		t.Fatalf("failure_reasons = %v, want empty", report.FailureReasons)
	}
	if report.PeakInFlight < 1 || report.PeakInFlight > 3 {
		t.Fatalf("peak_in_flight = %d, want 1..3", report.PeakInFlight)
	}
	l := report.Latency
	if l.Count != 10 || !(l.MinMs <= l.P50Ms && l.P50Ms <= l.P95Ms && l.P95Ms <= l.P99Ms && l.P99Ms <= l.MaxMs) {
		t.Fatalf("latency histogram out of order: %+v", l)
	}
	if report.CorrelationID == "" {
		t.Fatal("expected a correlation id")
	}
}

func TestRunServerErrorsAreStatusFailures(t *testing.T) {
	server, _ := statusServer(t, http.StatusInternalServerError)

	report, _, err := runJSON(t, server.URL, "-n", "5", "-c", "2")
	if err != nil {
		t.Fatalf("run() error = %v, failures should not change the exit status by default", err)
	}
	if report.Succeeded != 0 || report.Failed != 5 {
		t.Fatalf("succeeded/failed = %d/%d, want 0/5", report.Succeeded, report.Failed)
	}
	if report.ResponseCodes["500"] != 5 {
		t.Fatalf("response_codes = %v, want {500: 5}", report.ResponseCodes)
	}
	if report.FailureReasons["status"] != 5 {
		t.Fatalf("failure_reasons = %v, want status=5", report.FailureReasons)
	}
}

func TestRunWithoutStatusCheck(t *testing.T) {
	server, _ := statusServer(t, http.StatusNotFound)

	report, _, err := runJSON(t, server.URL, "-n", "3", "--check-status=false")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if report.Failed != 3 || report.ResponseCodes["404"] != 3 {
		t.Fatalf("failed=%d codes=%v, want 3 failures with code 404", report.Failed, report.ResponseCodes)
	}
	if report.FailureReasons["other"] != 3 || report.FailureReasons["status"] != 0 {
		t.Fatalf("failure_reasons = %v, want other=3", report.FailureReasons)
	}
}

func TestRunConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	target := server.URL
	server.Close()

	report, _, err := runJSON(t, target, "-n", "4", "-c", "2")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if report.Succeeded != 0 || report.Failed != 4 {
		t.Fatalf("succeeded/failed = %d/%d, want 0/4", report.Succeeded, report.Failed)
	}
	if len(report.ResponseCodes) != 0 {
		t.Fatalf("response_codes = %v, want empty", report.ResponseCodes)
	}
	if report.FailureReasons["connect"] != 4 {
		t.Fatalf("failure_reasons = %v, want connect=4", report.FailureReasons)
	}
}

func TestRunZeroRequests(t *testing.T) {
	server, hits := statusServer(t, http.StatusOK)

	report, _, err := runJSON(t, server.URL, "-n", "0", "-c", "5")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("server saw %d requests, want 0", hits.Load())
	}
	if report.Requests != 0 || report.Succeeded != 0 || report.Failed != 0 {
		t.Fatalf("report = %+v, want empty", report)
	}
	if report.Latency.Count != 0 || report.Latency.MaxMs != 0 {
		t.Fatalf("latency = %+v, want zero", report.Latency)
	}
}

func TestRunSendsIdentifyingHeaders(t *testing.T) {
	var userAgent, correlation, custom atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.Header.Get("User-Agent"))
		correlation.Store(r.Header.Get("X-Correlation-ID"))
		custom.Store(r.Header.Get("X-Env"))
	}))
	defer server.Close()

	report, _, err := runJSON(t, server.URL, "-n", "1", "--header", "X-Env=staging")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := userAgent.Load().(string); !strings.HasPrefix(got, "salvo/") {
		t.Errorf("User-Agent = %q, want salvo/<version>", got)
	}
	if got := correlation.Load().(string); got != report.CorrelationID {
		t.Errorf("X-Correlation-ID = %q, want report id %q", got, report.CorrelationID)
	}
	if got := custom.Load().(string); got != "staging" {
		t.Errorf("X-Env = %q, want staging", got)
	}
}

func TestRunFailOnError(t *testing.T) {
	server, _ := statusServer(t, http.StatusServiceUnavailable)

	_, _, err := runJSON(t, server.URL, "-n", "2", "--fail-on-error")
	if err == nil || !strings.Contains(err.Error(), "2 requests failed") {
		t.Fatalf("run() error = %v, want failure count", err)
	}
}

func TestRunThresholds(t *testing.T) {
	server, _ := statusServer(t, http.StatusOK)

	if _, _, err := runJSON(t, server.URL, "-n", "5", "--threshold", "failures:count == 0"); err != nil {
		t.Fatalf("passing threshold returned error: %v", err)
	}

	_, _, err := runJSON(t, server.URL, "-n", "5", "--threshold", "requests:count > 5")
	if err == nil || !strings.Contains(err.Error(), "requests:count > 5") {
		t.Fatalf("run() error = %v, want failed threshold", err)
	}
}

func TestRunYAMLOutput(t *testing.T) {
	server, _ := statusServer(t, http.StatusCreated)

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{server.URL, "-n", "4", "-o", "yaml", "--estimator", "hdr"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	var report struct {
		Succeeded     int64            `yaml:"succeeded"`
		ResponseCodes map[string]int64 `yaml:"response_codes"`
	}
	if err := yaml.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, stdout.String())
	}
	if report.Succeeded != 4 || report.ResponseCodes[strconv.Itoa(http.StatusCreated)] != 4 {
		t.Fatalf("report = %+v", report)
	}
}

func TestRunTextOutputAndLogging(t *testing.T) {
	server, _ := statusServer(t, http.StatusBadGateway)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{server.URL, "-n", "3", "--log-errors", "--log-format", "json"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Total Requests:    3") {
		t.Errorf("expected text report, got:\n%s", stdout.String())
	}
	if !strings.Contains(stderr.String(), `"msg":"request failed"`) {
		t.Errorf("expected JSON failure log lines, got:\n%s", stderr.String())
	}
	if !strings.Contains(stderr.String(), `"msg":"run finished"`) {
		t.Errorf("expected run summary log, got:\n%s", stderr.String())
	}
}

func TestRunHelpWritesToStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"--help"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Usage: salvo") {
		t.Fatalf("stdout = %q, want help text", stdout.String())
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want empty", stderr.String())
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"relative target", []string{"/relative"}},
		{"zero connections", []string{"http://localhost", "-c", "0"}},
		{"negative requests", []string{"http://localhost", "-n", "-1"}},
		{"bad threshold", []string{"http://localhost", "--threshold", "latency:p42 < 1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if err := run(context.Background(), tt.args, &stdout, &stderr); err == nil {
				t.Fatal("expected error")
			}
			if stdout.Len() != 0 {
				t.Errorf("expected no report, got %q", stdout.String())
			}
		})
	}
}

func TestRunIgnoresCallerCancellation(t *testing.T) {
	server, hits := statusServer(t, http.StatusOK)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	if err := run(ctx, []string{server.URL, "-n", "6", "-o", "json"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if hits.Load() != 6 {
		t.Fatalf("server saw %d requests, want 6", hits.Load())
	}
}
