package metrics

import (
	"fmt"
	"strings"
	"time"
)

// Tracked quantiles.
const (
	QuantileP50 = 0.50
	QuantileP95 = 0.95
	QuantileP99 = 0.99
)

// EstimatorKind selects a latency estimator implementation.
type EstimatorKind string

const (
	EstimatorP2  EstimatorKind = "p2"
	EstimatorHDR EstimatorKind = "hdr"
)

// Estimator summarises a stream of latencies in bounded memory.
type Estimator interface {
	Observe(d time.Duration)
	Histogram() LatencyHistogram
}

// LatencyHistogram is the latency section of a run report. All fields are
// zero when Count is zero.
type LatencyHistogram struct {
	Count int64         `json:"count" yaml:"count"`
	Min   time.Duration `json:"-" yaml:"-"`
	P50   time.Duration `json:"-" yaml:"-"`
	P95   time.Duration `json:"-" yaml:"-"`
	P99   time.Duration `json:"-" yaml:"-"`
	Max   time.Duration `json:"-" yaml:"-"`
	Mean  time.Duration `json:"-" yaml:"-"`

	// JSON-friendly millisecond fields.
	MinMs  float64 `json:"min_ms" yaml:"min_ms"`
	P50Ms  float64 `json:"p50_ms" yaml:"p50_ms"`
	P95Ms  float64 `json:"p95_ms" yaml:"p95_ms"`
	P99Ms  float64 `json:"p99_ms" yaml:"p99_ms"`
	MaxMs  float64 `json:"max_ms" yaml:"max_ms"`
	MeanMs float64 `json:"mean_ms" yaml:"mean_ms"`
}

// NewEstimator returns the estimator for kind.
func NewEstimator(kind EstimatorKind) (Estimator, error) {
	switch EstimatorKind(strings.ToLower(string(kind))) {
	case "", EstimatorP2:
		return NewP2Estimator(), nil
	case EstimatorHDR:
		return NewHDREstimator(), nil
	default:
		return nil, fmt.Errorf("unsupported estimator %q", kind)
	}
}

// extrema tracks running min, max and mean.
type extrema struct {
	count int64
	min   time.Duration
	max   time.Duration
	sum   time.Duration
}

func (e *extrema) observe(d time.Duration) {
	if e.count == 0 || d < e.min {
		e.min = d
	}
	if d > e.max {
		e.max = d
	}
	e.count++
	e.sum += d
}

// histogram assembles a LatencyHistogram, forcing
// min <= p50 <= p95 <= p99 <= max since independent estimates can cross.
func (e *extrema) histogram(p50, p95, p99 time.Duration) LatencyHistogram {
	if e.count == 0 {
		return LatencyHistogram{}
	}
	p50 = clampDuration(p50, e.min, e.max)
	p95 = clampDuration(p95, p50, e.max)
	p99 = clampDuration(p99, p95, e.max)

	h := LatencyHistogram{
		Count: e.count,
		Min:   e.min,
		P50:   p50,
		P95:   p95,
		P99:   p99,
		Max:   e.max,
		Mean:  time.Duration(int64(e.sum) / e.count),
	}
	h.MinMs = toMillis(h.Min)
	h.P50Ms = toMillis(h.P50)
	h.P95Ms = toMillis(h.P95)
	h.P99Ms = toMillis(h.P99)
	h.MaxMs = toMillis(h.Max)
	h.MeanMs = toMillis(h.Mean)
	return h
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
