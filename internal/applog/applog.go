// Package applog wires the process-wide structured logger used by every
// long-lived component (store, connection manager, query engine,
// scheduler, exporter). Components never print to stdout directly; they
// hold a component-scoped zerolog.Logger acquired through WithComponent.
package applog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the global base logger, configured once by Init.
var Logger zerolog.Logger

// Level is a process log level.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config controls how Init builds the global logger.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger. Call once at process startup.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
		return
	}

	Logger = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()
}

// WithComponent returns a child logger tagged with the given component
// name, for attaching to one long-lived subsystem (e.g. "store",
// "queryengine", "scheduler").
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func init() {
	// Safe default so packages that log before Init (e.g. in tests) don't
	// panic on a zero-value Logger.
	Init(Config{Level: InfoLevel})
}
