// Package log configures the process-wide zerolog logger. Packages log
// through zerolog's global logger; this wires its level and output format
// from configuration at startup.
package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global logger. An unparseable level falls back to
// info with a warning rather than refusing to start.
func Setup(level string, pretty bool) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(logLevel).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stderr).
			Level(logLevel).
			With().
			Timestamp().
			Logger()
	}
	log.Logger = logger

	if err != nil {
		log.Warn().
			Str("configured_log_level", level).
			Str("fallback_log_level", logLevel.String()).
			Msg("Invalid LOG_LEVEL configured, defaulting to 'info'")
	}
}
