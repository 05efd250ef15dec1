// Package api is the driver boundary: the ODBC entry points applications
// call through the driver manager. Every function resolves its handle
// token, clears the handle's diagnostics, does its work inside a panic
// guard, and reports failures exclusively through the return code and the
// diagnostics ledger.
package api

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/meshql/mongodbc/pkg/handles"
	"github.com/meshql/mongodbc/pkg/metrics"
)

// DriverVersion is reported to the translation library's compatibility
// check and in diagnostics.
const DriverVersion = "2.2.0"

// Environment variables honored at initialization.
const (
	EnvLogLevel = "MONGODBC_LOG_LEVEL"
	EnvLogFile  = "MONGODBC_LOG_FILE"
)

// Driver is the process-wide driver context: the handle arena plus the
// ambient logger and metrics collector shared by every connection.
type Driver struct {
	Arena   *handles.Arena
	Logger  zerolog.Logger
	Metrics metrics.Collector
}

var (
	defaultOnce   sync.Once
	defaultDriver *Driver
)

// Default returns the process-wide driver, initializing it on first use.
func Default() *Driver {
	defaultOnce.Do(func() {
		defaultDriver = New(newLogger(), metrics.NewNoOpCollector())
	})
	return defaultDriver
}

// New builds a driver context with explicit collaborators; tests and
// embedding applications use this instead of the process singleton.
func New(logger zerolog.Logger, collector metrics.Collector) *Driver {
	if collector == nil {
		collector = metrics.NewNoOpCollector()
	}
	return &Driver{
		Arena:   handles.NewArena(),
		Logger:  logger,
		Metrics: collector,
	}
}

// newLogger builds the ambient logger from the environment. Logging is
// off unless a level is configured: a driver loaded into an arbitrary
// application must stay quiet by default.
func newLogger() zerolog.Logger {
	levelStr := os.Getenv(EnvLogLevel)
	if levelStr == "" {
		return zerolog.New(io.Discard)
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if path := os.Getenv(EnvLogFile); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			out = f
		}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("component", "mongodbc").Logger()
}
