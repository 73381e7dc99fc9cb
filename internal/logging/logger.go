// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options control where and how log lines are written.
type Options struct {
	Level  string // debug, info, warn, error; LOG_LEVEL overrides
	Format string // console or json; LOG_FORMAT overrides
	File   string // if set, log to this file instead of Out
	Out    io.Writer
}

// Init installs the global logger. The returned closer releases the log
// file, if one was opened.
func Init(opts Options) (io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	lvl := opts.Level
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		lvl = env
	}
	if lvl != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(lvl))
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", lvl, err)
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
		closer = f
	}

	format := opts.Format
	if env := os.Getenv("LOG_FORMAT"); env != "" {
		format = env
	}
	if format == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    opts.File != "",
		}).With().Timestamp().Logger()
	}
	return closer, nil
}

// Disable discards all log output.
func Disable() {
	log.Logger = zerolog.Nop()
}

// Info logs an info message with optional fields
func Info() *zerolog.Event {
	return log.Info()
}

// Debug logs a debug message with optional fields
func Debug() *zerolog.Event {
	return log.Debug()
}

// Error logs an error message with optional fields
func Error() *zerolog.Event {
	return log.Error()
}

// Warn logs a warning message with optional fields
func Warn() *zerolog.Event {
	return log.Warn()
}

// Fatal logs a fatal message and exits
func Fatal() *zerolog.Event {
	return log.Fatal()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
