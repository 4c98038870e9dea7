// ABOUTME: Standard logger implementation backed by logrus
// ABOUTME: Provides structured logging with level and output format support

package standard

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"favicon-finder-api/core/interfaces"
)

// Options configures a StandardLogger
type Options struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Format is "text" or "json". Defaults to text.
	Format string
	Output io.Writer
}

// StandardLogger implements the Logger interface using logrus
type StandardLogger struct {
	entry *logrus.Entry
}

// NewStandardLogger creates a new logger writing text at info level to stdout
func NewStandardLogger() *StandardLogger {
	return NewStandardLoggerWithOptions(Options{})
}

// NewStandardLoggerWithOptions creates a logger from explicit options
func NewStandardLoggerWithOptions(opts Options) *StandardLogger {
	logger := logrus.New()

	if opts.Output != nil {
		logger.SetOutput(opts.Output)
	} else {
		logger.SetOutput(os.Stdout)
	}

	level, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil || opts.Level == "" {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(opts.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &StandardLogger{entry: logrus.NewEntry(logger)}
}

// With returns a logger that adds fields to every entry
func (l *StandardLogger) With(fields map[string]interface{}) *StandardLogger {
	return &StandardLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// Debug logs a debug message
func (l *StandardLogger) Debug(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

// Info logs an info message
func (l *StandardLogger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

// Warn logs a warning message
func (l *StandardLogger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

// Error logs an error message
func (l *StandardLogger) Error(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Error(msg)
}

// NopLogger discards everything
type NopLogger = interfaces.NopLogger

// NewNopLogger returns a logger that drops all entries
func NewNopLogger() NopLogger {
	return NopLogger{}
}
