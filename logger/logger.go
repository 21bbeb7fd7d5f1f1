// Package logger wraps zerolog with per-component loggers.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a structured logger bound to a set of context fields
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the process-wide logger set by Init
	Default *Logger
)

// Init configures the process logger from LOG_LEVEL and LOG_FORMAT.
// Production defaults to JSON lines on stdout, everything else to a
// human-readable console writer.
func Init() {
	var out io.Writer = os.Stdout
	if logFormat() == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	InitWithWriter(out)
}

// InitWithWriter initializes the logger with a custom output
func InitWithWriter(out io.Writer) {
	level := logLevel()

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(level)

	Default = &Logger{logger: zerolog.New(out).With().Timestamp().Str("service", "pricescout").Logger()}

	Default.Debug().
		Str("level", level.String()).
		Msg("Logger initialized")
}

func production() bool {
	return strings.EqualFold(os.Getenv("PRICESCOUT_ENVIRONMENT"), "production")
}

func logLevel() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if production() {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func logFormat() string {
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		return "json"
	case "console", "text":
		return "console"
	}
	if production() {
		return "json"
	}
	return "console"
}

// Level returns the active global level
func Level() zerolog.Level {
	return zerolog.GlobalLevel()
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	newLogger := l.logger.With()
	for k, v := range fields {
		newLogger = newLogger.Interface(k, v)
	}
	return &Logger{logger: newLogger.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }

func (l *Logger) Info() *zerolog.Event { return l.logger.Info() }

func (l *Logger) Warn() *zerolog.Event { return l.logger.Warn() }

func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }

func ensure() {
	if Default == nil {
		Init()
	}
}

// ForComponent creates a logger tagged with a component name
func ForComponent(component string) *Logger {
	ensure()
	return Default.WithField("component", component)
}

// ForGateway creates a logger for the scraping proxy gateway
func ForGateway() *Logger { return ForComponent("gateway") }

// ForSearch creates a logger for the search orchestrator
func ForSearch() *Logger { return ForComponent("search") }

// ForStore creates a logger for the persistence sink
func ForStore() *Logger { return ForComponent("store") }

func ForWorker() *Logger { return ForComponent("worker") }

func ForAPI() *Logger { return ForComponent("api") }

func ForPublisher() *Logger { return ForComponent("publisher") }

func ForCache() *Logger { return ForComponent("cache") }
