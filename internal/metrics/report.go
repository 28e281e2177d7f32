package metrics

import "time"

// Report is the immutable summary of one run.
type Report struct {
	CorrelationID  string           `json:"correlation_id" yaml:"correlation_id"`
	Requests       int64            `json:"requests" yaml:"requests"`
	Succeeded      int64            `json:"succeeded" yaml:"succeeded"`
	Failed         int64            `json:"failed" yaml:"failed"`
	ResponseCodes  map[string]int64 `json:"response_codes" yaml:"response_codes"`
	Latency        LatencyHistogram `json:"latency_histogram" yaml:"latency_histogram"`
	FailureReasons map[Reason]int64 `json:"failure_reasons" yaml:"failure_reasons"`
	PeakInFlight   int64            `json:"peak_in_flight" yaml:"peak_in_flight"`
	Duration       time.Duration    `json:"-" yaml:"-"`
	DurationMs     float64          `json:"duration_ms" yaml:"duration_ms"`
	RequestsPerSec float64          `json:"requests_per_sec" yaml:"requests_per_sec"`
}

// FailureRate returns failed/requests, or 0 for an empty run.
func (r Report) FailureRate() float64 {
	if r.Requests == 0 {
		return 0
	}
	return float64(r.Failed) / float64(r.Requests)
}

// StatusCount sums ResponseCodes.
func (r Report) StatusCount() int64 {
	var n int64
	for _, c := range r.ResponseCodes {
		n += c
	}
	return n
}
