// Package logging builds the charmbracelet loggers used by angr-setup.
package logging

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

// Format specifies the output format for log messages.
type Format string

const (
	// FormatText produces human-readable text output.
	FormatText Format = "text"
	// FormatJSON produces machine-readable JSON output.
	FormatJSON Format = "json"
)

// Config holds the configuration for creating a new logger.
type Config struct {
	// Level sets the minimum log level.
	Level log.Level
	// Format specifies the output format (text or JSON).
	Format Format
	// Output is where log messages are written. Defaults to os.Stderr if nil.
	Output io.Writer
	// Prefix is prepended to every message.
	Prefix string
}

// New creates a logger with the given configuration.
func New(cfg Config) *log.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	formatter := log.TextFormatter
	if cfg.Format == FormatJSON {
		formatter = log.JSONFormatter
	}

	return log.NewWithOptions(output, log.Options{
		Level:     cfg.Level,
		Prefix:    cfg.Prefix,
		Formatter: formatter,
	})
}

// Discard creates a logger that drops all output.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// LevelFromVerbosity maps the -v count onto a level. quiet wins over verbosity.
func LevelFromVerbosity(v int, quiet bool) log.Level {
	switch {
	case quiet:
		return log.ErrorLevel
	case v <= 0:
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}

// testWriter adapts testing.TB to io.Writer.
type testWriter struct {
	t testing.TB
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// ForTest returns a debug level logger writing through t.Log.
func ForTest(t testing.TB) *log.Logger {
	return New(Config{
		Level:  log.DebugLevel,
		Output: &testWriter{t: t},
	})
}
