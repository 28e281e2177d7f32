package config

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct {
	out io.Writer
}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader. Help text is written to out,
// or to stdout when out is nil.
func NewLoader(out io.Writer) *Loader {
	if out == nil {
		out = os.Stdout
	}
	return &Loader{out: out}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (l *Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand(l.out)
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// If no arguments provided and no config file, show help/usage
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(&cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(&cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return &cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	output := string(cfg.Output)
	logFormat := string(cfg.LogFormat)
	bindings := []setting{
		{[]string{"target", "url"}, stringInto(&cfg.TargetURL)},
		{[]string{"requests", "total"}, intInto(&cfg.Requests)},
		{[]string{"connections", "concurrency", "workers"}, intInto(&cfg.Connections)},
		{[]string{"timeout"}, durationInto(&cfg.Timeout)},
		{[]string{"maxredirects", "max_redirects", "max-redirects"}, intInto(&cfg.MaxRedirects)},
		{[]string{"checkstatus", "check_status", "check-status"}, boolInto(&cfg.CheckStatus)},
		{[]string{"headers"}, headersInto(&cfg.Headers)},
		{[]string{"useragent", "user_agent", "user-agent"}, nonEmptyStringInto(&cfg.UserAgent)},
		{[]string{"correlationheader", "correlation_header", "correlation-header"}, nonEmptyStringInto(&cfg.CorrelationHeader)},
		{[]string{"estimator"}, nonEmptyStringInto(&cfg.Estimator)},
		{[]string{"loglevel", "log_level", "log-level"}, nonEmptyStringInto(&cfg.LogLevel)},
		{[]string{"output"}, lowerStringInto(&output)},
		{[]string{"logformat", "log_format", "log-format"}, lowerStringInto(&logFormat)},
		{[]string{"progress"}, boolInto(&cfg.Progress)},
		{[]string{"logerrors", "log_errors", "log-errors"}, boolInto(&cfg.LogErrors)},
		{[]string{"failonerror", "fail_on_error", "fail-on-error"}, boolInto(&cfg.FailOnError)},
		{[]string{"thresholds"}, stringListInto(&cfg.Thresholds)},
		{[]string{"tracing"}, func(raw interface{}) error {
			tracing, err := parseTracingConfig(raw, cfg.Tracing)
			if err != nil {
				return err
			}
			cfg.Tracing = tracing
			return nil
		}},
	}
	if err := applySettings(settings, bindings); err != nil {
		return err
	}

	cfg.Output = OutputFormat(output)
	cfg.LogFormat = LogFormat(logFormat)
	return nil
}

func parseTracingConfig(value interface{}, base TracingConfig) (TracingConfig, error) {
	settings, err := sectionSettings(value)
	if err != nil {
		return TracingConfig{}, err
	}
	cfg := base

	bindings := []setting{
		{[]string{"endpoint"}, stringInto(&cfg.Endpoint)},
		{[]string{"protocol"}, lowerStringInto(&cfg.Protocol)},
		{[]string{"servicename", "service_name", "service-name"}, stringInto(&cfg.ServiceName)},
		{[]string{"insecure"}, boolInto(&cfg.Insecure)},
		{[]string{"propagate"}, boolInto(&cfg.Propagate)},
		{[]string{"samplerate", "sample_rate", "sample-rate"}, floatInto(&cfg.SampleRate)},
	}
	if err := applySettings(settings, bindings); err != nil {
		return TracingConfig{}, err
	}
	return cfg, nil
}
