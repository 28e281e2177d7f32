package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/salvo/internal/config"
	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/tracing"
)

// RequestBuilder produces identical GET requests against one target.
type RequestBuilder struct {
	target    string
	headers   http.Header
	propagate bool
}

// NewRequestBuilder validates the target and headers in cfg. correlationID,
// when non-empty, is sent in cfg.CorrelationHeader on every request.
func NewRequestBuilder(cfg *config.Config, correlationID string) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	target := strings.TrimSpace(cfg.TargetURL)
	if target == "" {
		return nil, errors.New("target URL is required")
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("target URL %q must use http or https", target)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("target URL %q has no host", target)
	}

	headers := http.Header{}
	for key, value := range cfg.Headers {
		if err := setHeader(headers, key, value); err != nil {
			return nil, err
		}
	}
	if ua := strings.TrimSpace(cfg.UserAgent); ua != "" {
		if err := setHeader(headers, "User-Agent", ua); err != nil {
			return nil, err
		}
	}
	if correlationID != "" && strings.TrimSpace(cfg.CorrelationHeader) != "" {
		if err := setHeader(headers, cfg.CorrelationHeader, correlationID); err != nil {
			return nil, err
		}
	}

	return &RequestBuilder{
		target:    u.String(),
		headers:   headers,
		propagate: cfg.Tracing.ShouldPropagate(),
	}, nil
}

func setHeader(headers http.Header, key, value string) error {
	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") {
		return fmt.Errorf("invalid header key %q", key)
	}
	canonicalKey := http.CanonicalHeaderKey(trimmedKey)
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("invalid header value for %s", canonicalKey)
	}
	headers.Set(canonicalKey, value)
	return nil
}

// Target returns the normalized target URL.
func (b *RequestBuilder) Target() string {
	return b.target
}

// Build creates a fresh request bound to ctx. Failures are reported as
// build-phase errors.
func (b *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	if b == nil {
		return nil, &metrics.PhaseError{Phase: metrics.PhaseBuild, Err: errors.New("builder cannot be nil")}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.target, nil)
	if err != nil {
		return nil, &metrics.PhaseError{Phase: metrics.PhaseBuild, Err: err}
	}

	req.Header = b.headers.Clone()
	if b.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}
	return req, nil
}

// Options tunes the shared client.
type Options struct {
	// Timeout bounds a whole exchange including the body read. Zero disables it.
	Timeout time.Duration
	// MaxRedirects is the number of redirects followed before the request
	// fails with metrics.ErrRedirectPolicy. Zero never follows.
	MaxRedirects int
	// MaxConnsPerHost sizes the idle pool; typically the in-flight bound.
	MaxConnsPerHost int
}

// NewClient returns a client shared by every execution of a run.
func NewClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout < 0 {
		timeout = 0
	}

	idlePerHost := 32
	if opts.MaxConnsPerHost > idlePerHost {
		idlePerHost = opts.MaxConnsPerHost
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   idlePerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:       timeout,
		Transport:     transport,
		CheckRedirect: redirectPolicy(opts.MaxRedirects),
	}
}

func redirectPolicy(limit int) func(*http.Request, []*http.Request) error {
	if limit < 0 {
		limit = 0
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) > limit {
			return fmt.Errorf("%w: stopped after %d redirects", metrics.ErrRedirectPolicy, limit)
		}
		if scheme := req.URL.Scheme; scheme != "http" && scheme != "https" {
			return fmt.Errorf("%w: redirect to unsupported scheme %q", metrics.ErrRedirectPolicy, scheme)
		}
		return nil
	}
}
