// Package logging provides structured logging for alloymap using zerolog.
// Terminals get a human-readable console writer; everything else gets JSON
// lines so pipeline runs can be collected by log shippers.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("alloy", "SS.1").Msg("Reconciling record")
//
//	ctx := logging.WithLogger(context.Background(), log)
//	ctx = logging.WithRun(ctx, runID)
//	logging.FromContext(ctx).Debug().Msg("Using run logger")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger zerolog.Logger

func init() {
	defaultLogger = createDefaultLogger()
}

func createDefaultLogger() zerolog.Logger {
	var writer io.Writer = os.Stderr

	if isTerminal(os.Stderr) && os.Getenv("LOG_FORMAT") != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	level := levelFromEnv()
	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()

	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}

	return logger
}

// Default returns the process-wide logger used when no logger is injected.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Component returns a child of logger tagged with the component name.
// A nil logger resolves to the default logger.
func Component(logger *zerolog.Logger, name string) zerolog.Logger {
	if logger == nil {
		logger = Default()
	}
	return logger.With().Str("component", name).Logger()
}

// Alloy returns a child of logger tagged with the alloy name.
func Alloy(logger *zerolog.Logger, alloy string) zerolog.Logger {
	if logger == nil {
		logger = Default()
	}
	return logger.With().Str("alloy", alloy).Logger()
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func levelFromEnv() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if os.Getenv("DEBUG") != "" {
			return zerolog.DebugLevel
		}
		return zerolog.InfoLevel
	}
	return parseLevel(levelStr)
}
