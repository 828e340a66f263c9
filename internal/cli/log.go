// Package cli implements the comboom command-line interface.
//
// Commands:
//   - run: Live layout in the terminal with mouse dragging
//   - settle: Step a layout headless and write the resulting snapshot
//   - render: Generate SVG, PDF, PNG or DOT from a snapshot
//   - serve: Run a layout behind an HTTP API
//   - snapshots: List, show, import, export and delete saved snapshots
//   - cache: Manage the render cache
//   - config: Create and inspect the config file
//
// # Logging
//
// Commands log through charmbracelet/log at info level, or debug with
// --verbose. serve hands its logger to the frame loop through the context.
// run owns the terminal, so simulation logs go to --log-file or nowhere.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// logTimeFormat is hours, minutes, seconds and hundredths.
const logTimeFormat = "15:04:05.00"

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// fileLogger opens path for appending and returns a logger writing to it
// with a func that closes the file. An empty path discards everything.
func fileLogger(path string, level log.Level) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newLogger(f, level), func() { f.Close() }, nil
}

// progress logs how long a settle or render took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Settled 600 frames (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger stored by withLogger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
