// Package cli implements the loadmaster command-line interface.
//
// The commands analyze exported launcher mod lists, inspect single workshop
// items, show submission history, serve the HTTP API and manage the local
// caches. The CLI is built using cobra; settings come from internal/config.
//
// # Commands
//
//   - analyze: Run the full analysis over an exported mod list
//   - inspect: Fetch and print metadata for one workshop item
//   - history: Show the last recorded mod list for a submitter and context
//   - serve: Run the HTTP API with Prometheus metrics
//   - cache: Clear, locate or prune cached data
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so helpers can report timing.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a leveled logger that stamps each line with
// "15:04:05.00".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long a step took once it finishes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with the elapsed time, rounded to the
// millisecond, as the "took" field after any extra key/value pairs.
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger stored by withLogger, or
// log.Default() when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
