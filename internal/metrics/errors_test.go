package metrics_test

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"reflect"
	"syscall"
	"testing"

	"github.com/torosent/salvo/internal/metrics"
)

func dialError(inner error) error {
	return &url.Error{
		Op:  "Get",
		URL: "http://127.0.0.1:1",
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: inner},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []metrics.Reason
	}{
		{
			name: "nil error",
			err:  nil,
			want: nil,
		},
		{
			name: "connection refused",
			err:  dialError(&os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}),
			want: []metrics.Reason{metrics.ReasonConnect},
		},
		{
			name: "dial timeout matches connect and timeout",
			err:  dialError(os.ErrDeadlineExceeded),
			want: []metrics.Reason{metrics.ReasonConnect, metrics.ReasonTimeout},
		},
		{
			name: "dns failure",
			err:  &url.Error{Op: "Get", URL: "http://nope.invalid", Err: &net.DNSError{Err: "no such host", Name: "nope.invalid"}},
			want: []metrics.Reason{metrics.ReasonConnect},
		},
		{
			name: "context deadline",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded},
			want: []metrics.Reason{metrics.ReasonTimeout},
		},
		{
			name: "redirect policy",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: fmt.Errorf("%w: stopped after 10 redirects", metrics.ErrRedirectPolicy)},
			want: []metrics.Reason{metrics.ReasonRedirect},
		},
		{
			name: "unparsable Location header",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: errors.New(`failed to parse Location header "http://[::1": parse "http://[::1": missing ']' in host`)},
			want: []metrics.Reason{metrics.ReasonRedirect},
		},
		{
			name: "status policy",
			err:  &metrics.StatusError{StatusCode: 503},
			want: []metrics.Reason{metrics.ReasonStatus},
		},
		{
			name: "request build failure",
			err:  &metrics.PhaseError{Phase: metrics.PhaseBuild, Err: errors.New("bad url")},
			want: []metrics.Reason{metrics.ReasonBuilder},
		},
		{
			name: "truncated body",
			err:  &metrics.PhaseError{Phase: metrics.PhaseBody, Err: io.ErrUnexpectedEOF},
			want: []metrics.Reason{metrics.ReasonBody},
		},
		{
			name: "corrupt gzip body matches body and decode",
			err:  &metrics.PhaseError{Phase: metrics.PhaseBody, Err: gzip.ErrHeader},
			want: []metrics.Reason{metrics.ReasonBody, metrics.ReasonDecode},
		},
		{
			name: "unknown error",
			err:  errors.New("boom"),
			want: []metrics.Reason{metrics.ReasonOther},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := metrics.Classify(tt.err)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFailureWithoutErrorIsOther(t *testing.T) {
	o := metrics.Failure(nil, 0, 0)
	if o.Succeeded() {
		t.Fatalf("expected failure outcome")
	}
	if !reflect.DeepEqual(o.Reasons, []metrics.Reason{metrics.ReasonOther}) {
		t.Fatalf("expected other reason, got %v", o.Reasons)
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &metrics.StatusError{StatusCode: 404}
	if err.Error() != "unexpected status 404 Not Found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestParseReason(t *testing.T) {
	for _, r := range metrics.AllReasons {
		got, ok := metrics.ParseReason(string(r))
		if !ok || got != r {
			t.Errorf("ParseReason(%q) = %q, %v", r, got, ok)
		}
	}
	if _, ok := metrics.ParseReason("nope"); ok {
		t.Errorf("expected unknown reason to fail")
	}
}
