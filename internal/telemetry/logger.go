// Package telemetry provides the engine's default structured logger and a
// handful of field helpers used by every worker goroutine to tag log lines
// with the stream/component they came from.
package telemetry

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the minimal logging surface the engine depends on. It mirrors
// the teacher package's Printf-only interface so a GUI shell can still
// redirect engine logs into its own sink with SetLogger, but the package
// default is backed by zerolog instead of log.Default().
type Logger interface {
	Printf(format string, v ...any)
}

// zerologAdapter satisfies Logger by routing through a zerolog.Logger at
// info level. Components that need structured fields (stream key, worker
// name, pts) should use Component() to get a tagged sub-logger instead of
// formatting those fields into the message by hand.
type zerologAdapter struct {
	log zerolog.Logger
}

func (a zerologAdapter) Printf(format string, v ...any) {
	a.log.Info().Msgf(format, v...)
}

// NewDefault builds the package-default Logger: human-readable console
// output on stderr, timestamped, matching the register of somafm-cli's
// player logging (zerolog.ConsoleWriter rather than raw JSON, since this is
// an embeddable engine and its output is meant for a developer's terminal,
// not a log aggregator).
func NewDefault() Logger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	l := zerolog.New(writer).With().Timestamp().Logger()
	return zerologAdapter{log: l}
}

// Component wraps l with a "component" field when l is the package default
// zerolog-backed logger. If the caller installed a custom Logger via
// SetLogger, Component returns it unchanged — custom loggers are expected
// to already know how to annotate their own output.
func Component(l Logger, name string) Logger {
	if za, ok := l.(zerologAdapter); ok {
		return zerologAdapter{log: za.log.With().Str("component", name).Logger()}
	}
	return l
}

// Stream further tags a component logger with the active stream's
// identifying source string (path or URL). Purely cosmetic for non-zerolog
// loggers.
func Stream(l Logger, source string) Logger {
	if za, ok := l.(zerologAdapter); ok {
		return zerologAdapter{log: za.log.With().Str("source", source).Logger()}
	}
	return l
}
