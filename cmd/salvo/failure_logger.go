package main

import (
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/torosent/salvo/internal/metrics"
)

const (
	failureLogRate  = 10
	failureLogBurst = 10
)

// sampledFailureLogger logs failed outcomes through logrus, dropping lines
// beyond the token bucket and counting what it dropped.
type sampledFailureLogger struct {
	log        logrus.FieldLogger
	limiter    *rate.Limiter
	suppressed atomic.Int64
}

func newSampledFailureLogger(log logrus.FieldLogger, perSecond float64, burst int) *sampledFailureLogger {
	return &sampledFailureLogger{
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (l *sampledFailureLogger) LogFailure(o metrics.Outcome) {
	if !l.limiter.Allow() {
		l.suppressed.Add(1)
		return
	}
	reasons := make([]string, len(o.Reasons))
	for i, r := range o.Reasons {
		reasons[i] = string(r)
	}
	fields := logrus.Fields{
		"reasons": strings.Join(reasons, ","),
		"elapsed": o.Elapsed,
	}
	if o.HasStatus() {
		fields["status"] = o.StatusCode
	}
	l.log.WithFields(fields).WithError(o.Err).Warn("request failed")
}

// Flush reports how many failures were not logged.
func (l *sampledFailureLogger) Flush() {
	if n := l.suppressed.Swap(0); n > 0 {
		l.log.WithField("suppressed", n).Warn("failure logging was rate limited")
	}
}
