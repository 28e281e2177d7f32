// Package metrics turns request outcomes into a run report.
//
// Each executed request produces an [Outcome]: a success carrying its
// status code, or a failure carrying the error and every [Reason] class the
// error matches (see [Classify]). Classes are not mutually exclusive; a dial
// timeout counts as both [ReasonConnect] and [ReasonTimeout].
//
// # Accumulation
//
// An [Accumulator] folds outcomes into counters, a response-code map, a
// failure-reason tally and a streaming latency [Estimator]:
//
//	acc := metrics.NewAccumulator(metrics.NewP2Estimator())
//	acc.Add(outcome)
//	report := acc.Report(metrics.RunInfo{CorrelationID: id, Duration: elapsed})
//
// The accumulator is meant to be owned by one goroutine and does no locking.
//
// # Estimators
//
// Two estimators keep memory constant regardless of the request count:
//   - [P2Estimator]: one P² marker set per tracked quantile (p50, p95, p99)
//   - [HDREstimator]: a fixed-bucket HDR histogram from 1µs to 60s
//
// Both track exact min, max and mean.
package metrics
