package idemstore

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines an interface for logging operations.
// Implementations should be safe for concurrent use.
type Logger interface {
	// Info logs informational messages
	Info(ctx context.Context, format string, args ...interface{})

	// Warn logs warning messages
	Warn(ctx context.Context, format string, args ...interface{})

	// Error logs error messages
	Error(ctx context.Context, format string, args ...interface{})

	// Debug logs debug messages
	Debug(ctx context.Context, format string, args ...interface{})
}

// noopLogger is a Logger that does nothing.
type noopLogger struct{}

func (noopLogger) Info(ctx context.Context, format string, args ...interface{})  {}
func (noopLogger) Warn(ctx context.Context, format string, args ...interface{})  {}
func (noopLogger) Error(ctx context.Context, format string, args ...interface{}) {}
func (noopLogger) Debug(ctx context.Context, format string, args ...interface{}) {}

var defaultLogger Logger = noopLogger{}

// zerologLogger adapts a zerolog.Logger to Logger.
type zerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger returns a Logger writing through l.
func NewZerologLogger(l zerolog.Logger) Logger {
	return zerologLogger{l: l}
}

func (z zerologLogger) Info(ctx context.Context, format string, args ...interface{}) {
	z.l.Info().Msgf(format, args...)
}

func (z zerologLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	z.l.Warn().Msgf(format, args...)
}

func (z zerologLogger) Error(ctx context.Context, format string, args ...interface{}) {
	z.l.Error().Msgf(format, args...)
}

func (z zerologLogger) Debug(ctx context.Context, format string, args ...interface{}) {
	z.l.Debug().Msgf(format, args...)
}

// NewLoggerFromEnv builds a zerolog-backed Logger writing to w.
// LOG_LEVEL selects the level (default info), LOG_FORMAT=json selects JSON
// output, anything else the console writer.
func NewLoggerFromEnv(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	level, err := zerolog.ParseLevel(getString("LOG_LEVEL", "info"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var l zerolog.Logger
	if getString("LOG_FORMAT", "console") == "json" {
		l = zerolog.New(w)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}
	return NewZerologLogger(l.With().Timestamp().Str("component", "idemstore").Logger().Level(level))
}
