package metrics

import (
	"errors"
	"time"
)

var errUnclassified = errors.New("request failed")

// Reason classifies why a request failed. A single failure may carry
// several reasons.
type Reason string

const (
	ReasonBody     Reason = "body"
	ReasonBuilder  Reason = "builder"
	ReasonConnect  Reason = "connect"
	ReasonDecode   Reason = "decode"
	ReasonRedirect Reason = "redirect"
	ReasonStatus   Reason = "status"
	ReasonTimeout  Reason = "timeout"
	ReasonOther    Reason = "other"
)

// AllReasons lists every reason class in report order.
var AllReasons = []Reason{
	ReasonBody,
	ReasonBuilder,
	ReasonConnect,
	ReasonDecode,
	ReasonRedirect,
	ReasonStatus,
	ReasonTimeout,
	ReasonOther,
}

// ParseReason maps a class name back to its Reason.
func ParseReason(name string) (Reason, bool) {
	for _, r := range AllReasons {
		if string(r) == name {
			return r, true
		}
	}
	return "", false
}

// Outcome is the result of executing one request. Err is nil for a
// success; for a failure Reasons holds at least one class.
type Outcome struct {
	StatusCode int
	Elapsed    time.Duration
	Err        error
	Reasons    []Reason
}

// Success builds the outcome of a request answered with a 2xx status.
func Success(status int, elapsed time.Duration) Outcome {
	return Outcome{StatusCode: status, Elapsed: elapsed}
}

// Failure builds a failed outcome, classifying err. status is 0 when no
// response was received.
func Failure(err error, status int, elapsed time.Duration) Outcome {
	if err == nil {
		err = errUnclassified
	}
	return Outcome{
		StatusCode: status,
		Elapsed:    elapsed,
		Err:        err,
		Reasons:    Classify(err),
	}
}

// Succeeded reports whether the request succeeded.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// HasStatus reports whether a response status was observed.
func (o Outcome) HasStatus() bool {
	return o.StatusCode > 0
}
