package metrics

import (
	"strconv"
	"time"
)

// Accumulator folds outcomes into run totals. It is owned by a single
// goroutine and performs no locking.
type Accumulator struct {
	succeeded int64
	failed    int64
	codes     map[string]int64
	reasons   map[Reason]int64
	latency   Estimator
}

// NewAccumulator returns an empty accumulator feeding latencies into est.
// A nil est selects the P² estimator.
func NewAccumulator(est Estimator) *Accumulator {
	if est == nil {
		est = NewP2Estimator()
	}
	return &Accumulator{
		codes:   make(map[string]int64),
		reasons: make(map[Reason]int64),
		latency: est,
	}
}

// Add records one outcome.
func (a *Accumulator) Add(o Outcome) {
	if o.Succeeded() {
		a.succeeded++
	} else {
		a.failed++
		reasons := o.Reasons
		if len(reasons) == 0 {
			reasons = Classify(o.Err)
		}
		for _, r := range reasons {
			a.reasons[r]++
		}
	}
	if o.HasStatus() {
		a.codes[strconv.Itoa(o.StatusCode)]++
	}
	a.latency.Observe(o.Elapsed)
}

// Count returns the number of outcomes recorded so far.
func (a *Accumulator) Count() int64 {
	return a.succeeded + a.failed
}

// RunInfo carries run-level facts that are not derived from outcomes.
type RunInfo struct {
	CorrelationID string
	Duration      time.Duration
	PeakInFlight  int64
}

// Report snapshots the accumulator. The returned maps are copies.
func (a *Accumulator) Report(info RunInfo) Report {
	total := a.succeeded + a.failed
	r := Report{
		CorrelationID:  info.CorrelationID,
		Requests:       total,
		Succeeded:      a.succeeded,
		Failed:         a.failed,
		ResponseCodes:  make(map[string]int64, len(a.codes)),
		FailureReasons: make(map[Reason]int64, len(a.reasons)),
		Latency:        a.latency.Histogram(),
		PeakInFlight:   info.PeakInFlight,
		Duration:       info.Duration,
		DurationMs:     toMillis(info.Duration),
	}
	for code, n := range a.codes {
		r.ResponseCodes[code] = n
	}
	for reason, n := range a.reasons {
		r.FailureReasons[reason] = n
	}
	if info.Duration > 0 && total > 0 {
		r.RequestsPerSec = float64(total) / info.Duration.Seconds()
	}
	return r
}
