package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// HDREstimator records latencies in a fixed-size HDR histogram. Its memory
// depends on the trackable range, not on the number of observations.
type HDREstimator struct {
	extrema
	hist *hdrhistogram.Histogram
}

func NewHDREstimator() *HDREstimator {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	return &HDREstimator{hist: hdrhistogram.New(1, 60_000_000, 3)}
}

func (e *HDREstimator) Observe(d time.Duration) {
	if d < 0 {
		d = 0
	}
	e.observe(d)

	us := d.Microseconds()
	if us < e.hist.LowestTrackableValue() {
		us = e.hist.LowestTrackableValue()
	}
	if us > e.hist.HighestTrackableValue() {
		us = e.hist.HighestTrackableValue()
	}
	_ = e.hist.RecordValue(us)
}

func (e *HDREstimator) Histogram() LatencyHistogram {
	if e.hist.TotalCount() == 0 {
		return e.histogram(0, 0, 0)
	}
	return e.histogram(
		e.quantile(QuantileP50),
		e.quantile(QuantileP95),
		e.quantile(QuantileP99),
	)
}

func (e *HDREstimator) quantile(q float64) time.Duration {
	return time.Duration(e.hist.ValueAtQuantile(q*100)) * time.Microsecond
}
