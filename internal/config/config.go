package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/threshold"
)

// Version is reported in the default User-Agent.
const Version = "0.3.0"

// DefaultCorrelationHeader carries the run correlation id on every request.
const DefaultCorrelationHeader = "X-Correlation-ID"

// DefaultUserAgent returns the User-Agent sent when none is configured.
func DefaultUserAgent() string {
	return "salvo/" + Version
}

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

type Config struct {
	TargetURL         string            `mapstructure:"target"`
	Requests          int               `mapstructure:"requests"`
	Connections       int               `mapstructure:"connections"`
	Timeout           time.Duration     `mapstructure:"timeout"`
	MaxRedirects      int               `mapstructure:"max_redirects"`
	CheckStatus       bool              `mapstructure:"check_status"`
	Headers           map[string]string `mapstructure:"headers"`
	UserAgent         string            `mapstructure:"user_agent"`
	CorrelationHeader string            `mapstructure:"correlation_header"`
	Estimator         string            `mapstructure:"estimator"`
	Output            OutputFormat      `mapstructure:"output"`
	Progress          bool              `mapstructure:"progress"`
	LogErrors         bool              `mapstructure:"log_errors"`
	LogLevel          string            `mapstructure:"log_level"`
	LogFormat         LogFormat         `mapstructure:"log_format"`
	FailOnError       bool              `mapstructure:"fail_on_error"`
	Thresholds        []string          `mapstructure:"thresholds"`
	Tracing           TracingConfig     `mapstructure:"tracing"`
	ConfigFile        string            `mapstructure:"-"`
}

// TracingConfig configures OpenTelemetry export and header propagation.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Propagate   bool    `mapstructure:"propagate"`
	ServiceName string  `mapstructure:"service_name"`
}

// Enabled reports whether a tracer provider should be created.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || t.Propagate
}

// ShouldPropagate reports whether W3C trace headers are injected.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate
}

// Defaults returns the configuration used before files and flags apply.
func Defaults() Config {
	return Config{
		Requests:          1000,
		Connections:       4,
		Timeout:           30 * time.Second,
		MaxRedirects:      10,
		CheckStatus:       true,
		Headers:           map[string]string{},
		UserAgent:         DefaultUserAgent(),
		CorrelationHeader: DefaultCorrelationHeader,
		Estimator:         string(metrics.EstimatorP2),
		Output:            OutputText,
		LogLevel:          "info",
		LogFormat:         LogFormatText,
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if issue := validateTarget(c.TargetURL); issue != "" {
		issues = append(issues, issue)
	}
	if c.Connections < 1 {
		issues = append(issues, "connections must be >= 1")
	}
	if c.Requests < 0 {
		issues = append(issues, "requests must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.MaxRedirects < 0 {
		issues = append(issues, "max-redirects must be >= 0")
	}
	if strings.TrimSpace(c.CorrelationHeader) == "" {
		issues = append(issues, "correlation-header cannot be empty")
	}
	if _, err := metrics.NewEstimator(metrics.EstimatorKind(c.Estimator)); err != nil {
		issues = append(issues, err.Error())
	}

	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		issues = append(issues, fmt.Sprintf("output must be 'text', 'json' or 'yaml', got %q", c.Output))
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		issues = append(issues, fmt.Sprintf("log-format must be 'text' or 'json', got %q", c.LogFormat))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		issues = append(issues, fmt.Sprintf("log-level %q is not supported", c.LogLevel))
	}

	if _, err := threshold.ParseMultiple(c.Thresholds); err != nil {
		issues = append(issues, err.Error())
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTarget(raw string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "target is required (use --help for usage information)"
	}
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Sprintf("target %q is not a valid URL: %v", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("target %q must use http or https", target)
	}
	if u.Host == "" {
		return fmt.Sprintf("target %q has no host", target)
	}
	return ""
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
