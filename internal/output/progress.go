package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/salvo/internal/runner"
)

// ProgressSource exposes live run counters.
type ProgressSource interface {
	Progress() runner.Progress
}

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	source   ProgressSource
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(source ProgressSource, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressReporter{
		source:   source,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates and terminates the line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		<-p.finished
		fmt.Fprint(p.writer, p.line(), "\n")
	}
	p.ticker.Stop()
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, p.line())
		case <-p.done:
			return
		}
	}
}

func (p *ProgressReporter) line() string {
	snap := p.source.Progress()
	elapsed := time.Since(p.start)
	rps := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rps = float64(snap.Completed) / secs
	}
	return formatProgress(snap, rps)
}

func formatProgress(snap runner.Progress, rps float64) string {
	pct := 100.0
	if snap.Total > 0 {
		pct = float64(snap.Completed) / float64(snap.Total) * 100
	}
	return fmt.Sprintf("\rCompleted: %d/%d (%.0f%%) | In Flight: %d | Peak: %d | RPS: %.1f",
		snap.Completed, snap.Total, pct, snap.InFlight, snap.PeakInFlight, rps)
}
