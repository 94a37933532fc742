// Package cli implements the widgetgrid command-line interface.
//
// Every editing command follows the same cycle: load the layout document
// named by --file, apply one grid operation, and write the document back
// atomically. Engine errors are reported with their error code so scripts
// can tell a rejected edit (INVALID_OPERATION) from a corrupt file
// (INVALID_FORMAT).
//
// # Commands
//
//   - new, show, validate, templates: create and inspect layouts
//   - add, remove, swap, resize, grid-resize, settings: edit fixed widgets
//   - row: manage variable-height rows
//   - edit: interactive keyboard editor
//   - cache: manage the preview cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/widgetgrid/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one edit operation and reports it to the logger and the
// layout hooks. It is not safe for concurrent use.
type progress struct {
	logger *log.Logger
	op     string
	start  time.Time
}

func newProgress(l *log.Logger, op string) *progress {
	return &progress{logger: l, op: op, start: time.Now()}
}

// done reports the outcome of the operation and returns err unchanged.
func (p *progress) done(ctx context.Context, err error) error {
	elapsed := time.Since(p.start)
	observability.Layout().OnEdit(ctx, p.op, elapsed, err)
	if err != nil {
		p.logger.Debug("edit rejected", "op", p.op, "err", err)
		return err
	}
	p.logger.Debug("edit applied", "op", p.op, "took", elapsed.Round(time.Microsecond))
	return nil
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx == nil {
		return log.Default()
	}
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
