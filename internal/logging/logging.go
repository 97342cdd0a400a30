// Package logging builds the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a logger writing to w at the given level. Format "console"
// produces human-readable colored output; anything else writes JSON lines.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Setup builds a stdout logger and installs it as the global logger.
func Setup(level, format string) zerolog.Logger {
	logger := New(os.Stdout, level, format)
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	return logger
}
