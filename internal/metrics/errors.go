package metrics

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrRedirectPolicy is returned by a client redirect policy that refused to
// follow a redirect.
var ErrRedirectPolicy = errors.New("redirect policy violated")

// Phase names the stage of a request that failed outside the transport.
type Phase string

const (
	PhaseBuild  Phase = "build"
	PhaseBody   Phase = "body"
	PhaseDecode Phase = "decode"
)

// PhaseError wraps a failure that happened while building a request or
// consuming its response.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// StatusError reports a response whose status violates the status policy.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Classify returns every reason class err matches, in AllReasons order.
// Errors matching none of the known classes yield ReasonOther.
func Classify(err error) []Reason {
	if err == nil {
		return nil
	}

	matched := map[Reason]bool{
		ReasonBody:     hasPhase(err, PhaseBody),
		ReasonBuilder:  hasPhase(err, PhaseBuild),
		ReasonConnect:  isConnectError(err),
		ReasonDecode:   hasPhase(err, PhaseDecode) || isDecodeError(err),
		ReasonRedirect: isRedirectError(err),
		ReasonStatus:   isStatusError(err),
		ReasonTimeout:  isTimeout(err),
	}

	var reasons []Reason
	for _, r := range AllReasons {
		if matched[r] {
			reasons = append(reasons, r)
		}
	}
	if len(reasons) == 0 {
		reasons = append(reasons, ReasonOther)
	}
	return reasons
}

func hasPhase(err error, phase Phase) bool {
	for err != nil {
		var pe *PhaseError
		if !errors.As(err, &pe) {
			return false
		}
		if pe.Phase == phase {
			return true
		}
		err = pe.Err
	}
	return false
}

// isRedirectError also catches net/http's own failure to parse a Location
// header, which is raised before the redirect policy runs and is not wrapped.
func isRedirectError(err error) bool {
	if errors.Is(err, ErrRedirectPolicy) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Err != nil &&
		strings.Contains(urlErr.Err.Error(), "failed to parse Location header")
}

func isStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

func isConnectError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}
	var authorityErr x509.UnknownAuthorityError
	if errors.As(err, &authorityErr) {
		return true
	}
	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return true
	}
	var invalidErr x509.CertificateInvalidError
	return errors.As(err, &invalidErr)
}

func isDecodeError(err error) bool {
	if errors.Is(err, gzip.ErrHeader) || errors.Is(err, gzip.ErrChecksum) {
		return true
	}
	var corrupt flate.CorruptInputError
	return errors.As(err, &corrupt)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
