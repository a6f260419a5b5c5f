// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Component names used for the "component" field.
const (
	ComponentClient     = "cms-client"
	ComponentPagination = "pagination"
	ComponentAuth       = "auth"
	ComponentCache      = "cache"
	ComponentProxy      = "cms-proxy"
	ComponentCLI        = "cmsctl"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel validates a user-supplied level name.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
}

// parseLevel converts LogLevel to zerolog.Level. Unknown values mean info.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// ComponentLogger derives a component logger from parent, or from the
// global logger when parent is nil.
func ComponentLogger(parent *zerolog.Logger, component string) zerolog.Logger {
	if parent == nil {
		return NewLogger(component)
	}
	return parent.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: request and aggregation internals
//   - Outgoing CMS requests and cache hits
//   - Per-page aggregation progress and stop reason
//   - Token refreshes
//
// Info: normal operation events
//   - Server startup/shutdown
//   - Cache invalidations
//
// Warn: degraded but working
//   - Non-2xx CMS responses
//   - Cache errors (request proceeds without cache)
//   - Refreshed token rejected again
//
// Error: needs attention
//   - Transport failures
//   - Token exchange failures
//   - Configuration errors
//
// Context Fields:
//   - endpoint: endpoint label (list, detail, file)
//   - status: HTTP status code
//   - error_class: client, server, auth, network
//   - page, items, added: aggregation progress
//   - reason: aggregation stop reason
//   - key: cache key
