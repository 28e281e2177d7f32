package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/torosent/salvo/internal/config"
	"github.com/torosent/salvo/internal/httpclient"
	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/output"
	"github.com/torosent/salvo/internal/runner"
	"github.com/torosent/salvo/internal/threshold"
	"github.com/torosent/salvo/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader(stdout)
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	correlationID := ulid.Make().String()
	log.WithFields(logrus.Fields{
		"config_file":  cfg.ConfigFile,
		"timeout":      cfg.Timeout,
		"redirects":    cfg.MaxRedirects,
		"check_status": cfg.CheckStatus,
		"estimator":    cfg.Estimator,
		"tracing":      cfg.Tracing.Enabled(),
	}).Debug("configuration loaded")

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	if provider.Exporting() {
		log.WithField("protocol", cfg.Tracing.Protocol).Debug("exporting request spans")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("tracing shutdown failed")
		}
	}()

	builder, err := httpclient.NewRequestBuilder(cfg, correlationID)
	if err != nil {
		return err
	}
	client := httpclient.NewClient(httpclient.Options{
		Timeout:         cfg.Timeout,
		MaxRedirects:    cfg.MaxRedirects,
		MaxConnsPerHost: cfg.Connections,
	})
	defer client.CloseIdleConnections()

	var executor runner.Executor = &httpRequester{
		client:        client,
		builder:       builder,
		tracer:        provider.Tracer(),
		checkStatus:   cfg.CheckStatus,
		correlationID: correlationID,
	}

	var failures *sampledFailureLogger
	if cfg.LogErrors {
		failures = newSampledFailureLogger(log, failureLogRate, failureLogBurst)
		executor = runner.WithLogging(executor, failures)
	}

	r, err := runner.New(runner.Options{
		TotalRequests: cfg.Requests,
		MaxInFlight:   cfg.Connections,
		Executor:      executor,
		Estimator:     metrics.EstimatorKind(cfg.Estimator),
		CorrelationID: correlationID,
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"target":         builder.Target(),
		"requests":       cfg.Requests,
		"connections":    cfg.Connections,
		"correlation_id": correlationID,
	}).Info("starting run")

	var progress *output.ProgressReporter
	if cfg.Progress {
		progress = output.NewProgressReporter(r, progressInterval, stderr)
		progress.Start()
	}

	report, runErr := r.Run(ctx)

	if progress != nil {
		progress.Stop()
	}
	if failures != nil {
		failures.Flush()
	}
	if runErr != nil {
		return fmt.Errorf("run aborted: %w", runErr)
	}

	log.WithFields(logrus.Fields{
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"duration":  report.Duration,
	}).Info("run finished")

	results := threshold.NewEvaluator(thresholds).Evaluate(report)
	if err := printReport(stdout, cfg, builder.Target(), report, results); err != nil {
		return err
	}

	if failed := threshold.Failed(results); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, res := range failed {
			names[i] = res.Threshold.Raw
		}
		return fmt.Errorf("%d threshold(s) failed: %s", len(failed), strings.Join(names, ", "))
	}
	if cfg.FailOnError && report.Failed > 0 {
		return fmt.Errorf("%d requests failed", report.Failed)
	}
	return nil
}

func printReport(w io.Writer, cfg *config.Config, target string, report metrics.Report, results []threshold.Result) error {
	switch cfg.Output {
	case config.OutputJSON:
		return output.PrintJSONReport(w, report)
	case config.OutputYAML:
		return output.PrintYAMLReport(w, report)
	default:
		output.PrintReport(w, target, report)
		output.PrintThresholdResults(w, results)
		return nil
	}
}

func newLogger(cfg *config.Config, w io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	if cfg.LogFormat == config.LogFormatJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return log, nil
}
