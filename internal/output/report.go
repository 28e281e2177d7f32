package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/threshold"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, target string, report metrics.Report) {
	fmt.Fprintln(w, "\n--- Load Test Results ---")
	if target != "" {
		fmt.Fprintf(w, "Target:            %s\n", target)
	}
	if report.CorrelationID != "" {
		fmt.Fprintf(w, "Correlation ID:    %s\n", report.CorrelationID)
	}
	fmt.Fprintf(w, "Total Requests:    %d\n", report.Requests)
	fmt.Fprintf(w, "Successful:        %d\n", report.Succeeded)
	fmt.Fprintf(w, "Failed:            %d\n", report.Failed)
	fmt.Fprintf(w, "Duration:          %s\n", report.Duration)
	fmt.Fprintf(w, "Requests/sec:      %.2f\n", report.RequestsPerSec)
	fmt.Fprintf(w, "Peak In Flight:    %d\n", report.PeakInFlight)

	fmt.Fprintln(w, "\nLatency:")
	h := report.Latency
	fmt.Fprintf(w, "  Min:             %s\n", h.Min)
	fmt.Fprintf(w, "  P50:             %s\n", h.P50)
	fmt.Fprintf(w, "  P95:             %s\n", h.P95)
	fmt.Fprintf(w, "  P99:             %s\n", h.P99)
	fmt.Fprintf(w, "  Max:             %s\n", h.Max)
	fmt.Fprintf(w, "  Mean:            %s\n", h.Mean)

	fmt.Fprintln(w, "\nResponse Codes:")
	writeBuckets(w, metrics.SortedCodes(report.ResponseCodes), "  ")

	if report.Failed > 0 {
		fmt.Fprintln(w, "\nFailure Reasons:")
		writeBuckets(w, metrics.SortedReasons(report.FailureReasons), "  ")
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report metrics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, report metrics.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}

// PrintThresholdResults lists every evaluated threshold.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "\nThresholds:")
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
}

func writeBuckets(w io.Writer, rows []metrics.Bucket, indent string) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "%sNone\n", indent)
		return
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s%s: %d\n", indent, row.Key, row.Count)
	}
}
