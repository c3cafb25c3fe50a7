// Package logx is the module's thin zerolog wrapper: a single configured
// logger instance, passed to server.New rather than used as a global,
// with a human-readable console writer by default and structured JSON
// available for production deployments.
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	// Level is the minimum level that will be logged. Zero value is zerolog.DebugLevel.
	Level zerolog.Level
	// JSON selects structured JSON output instead of the human-readable
	// console writer.
	JSON bool
	// Output overrides the destination writer; defaults to os.Stderr.
	Output io.Writer
}

// New builds a zerolog.Logger per Options.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if !opts.JSON {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level := opts.Level
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything, used as a zero-value
// default so components never have to nil-check their logger field.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
