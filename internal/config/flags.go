package config

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "salvo [flags] URL",
		Short:         "A HTTP load testing utility",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(out)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	defaults := Defaults()

	// Request flags
	flags.String("target", "", "Target URL to load test (may also be given as the first argument)")
	flags.StringArray("header", nil, "Additional request header in key=value form (repeatable)")
	flags.String("user-agent", defaults.UserAgent, "User-Agent header sent with every request")
	flags.String("correlation-header", defaults.CorrelationHeader, "Header carrying the run correlation id")

	// Load control flags
	flags.IntP("requests", "n", defaults.Requests, "Number of requests to send to the target")
	flags.IntP("connections", "c", defaults.Connections, "Maximum number of requests in flight")
	flags.Duration("timeout", defaults.Timeout, "Per-request timeout (0 disables)")
	flags.Int("max-redirects", defaults.MaxRedirects, "Redirects to follow before failing (0 never follows)")
	flags.Bool("check-status", defaults.CheckStatus, "Treat non-2xx responses as status-policy failures")
	flags.String("estimator", defaults.Estimator, "Latency estimator: 'p2' or 'hdr'")

	// Output flags
	flags.StringP("output", "o", string(defaults.Output), "Report format: 'text', 'json' or 'yaml'")
	flags.Bool("progress", false, "Show a live progress line on stderr")
	flags.Bool("log-errors", false, "Log failed requests to stderr (sampled)")
	flags.String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	flags.String("log-format", string(defaults.LogFormat), "Log format: 'text' or 'json'")
	flags.Bool("fail-on-error", false, "Exit non-zero when any request fails")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Threshold flags
	flags.StringArray("threshold", nil, "Performance threshold (repeatable, e.g. 'latency:p95 < 500')")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (enables tracing)")
	flags.String("tracing-protocol", defaults.Tracing.Protocol, "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", defaults.Tracing.SampleRate, "Trace sampling ratio between 0.0 and 1.0")
	flags.Bool("tracing-propagate", false, "Inject W3C trace context into requests")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\nUsage: %s\n\nFlags:\n", cmd.Short, cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("target") {
		val, err := fs.GetString("target")
		if err != nil {
			return err
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}
	if fs.NArg() > 0 {
		if fs.Changed("target") {
			return fmt.Errorf("target given both as --target and as argument %q", fs.Arg(0))
		}
		if fs.NArg() > 1 {
			return fmt.Errorf("expected a single URL argument, got %d", fs.NArg())
		}
		cfg.TargetURL = strings.TrimSpace(fs.Arg(0))
	}

	for name, dst := range map[string]*string{
		"user-agent":         &cfg.UserAgent,
		"correlation-header": &cfg.CorrelationHeader,
		"estimator":          &cfg.Estimator,
		"log-level":          &cfg.LogLevel,
		"tracing-endpoint":   &cfg.Tracing.Endpoint,
		"tracing-protocol":   &cfg.Tracing.Protocol,
	} {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(val)
	}

	for name, dst := range map[string]*int{
		"requests":      &cfg.Requests,
		"connections":   &cfg.Connections,
		"max-redirects": &cfg.MaxRedirects,
	} {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	for name, dst := range map[string]*bool{
		"check-status":      &cfg.CheckStatus,
		"progress":          &cfg.Progress,
		"log-errors":        &cfg.LogErrors,
		"fail-on-error":     &cfg.FailOnError,
		"tracing-insecure":  &cfg.Tracing.Insecure,
		"tracing-propagate": &cfg.Tracing.Propagate,
	} {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("log-format") {
		val, err := fs.GetString("log-format")
		if err != nil {
			return err
		}
		cfg.LogFormat = LogFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("threshold") {
		vals, err := fs.GetStringArray("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = vals
	}

	vals, err := fs.GetStringArray("header")
	if err != nil {
		return err
	}
	if len(vals) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for _, entry := range vals {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("header must be in key=value format: %s", entry)
			}
			key := http.CanonicalHeaderKey(strings.TrimSpace(parts[0]))
			if key == "" {
				return fmt.Errorf("header key cannot be empty")
			}
			cfg.Headers[key] = strings.TrimSpace(parts[1])
		}
	}

	return nil
}
