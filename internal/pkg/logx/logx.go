/*
Package logx wraps zerolog for the MUD server.

It owns the process-wide logger: a colored console writer while developing and
JSON lines in production. Components derive child loggers with Component so
every line carries the subsystem that emitted it.
*/
package logx

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger configures the global logger.
// level accepts zerolog level names; an empty or unknown level falls back to
// debug in development and info otherwise.
func InitGlobalLogger(isDevelopment bool, level string) {
	out := os.Stdout
	if isDevelopment {
		out = os.Stderr
	}
	initLogger(out, isDevelopment, level)
}

func initLogger(out io.Writer, isDevelopment bool, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(out).With().Timestamp().Logger()
	if isDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		})
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
		if isDevelopment {
			lvl = zerolog.DebugLevel
		}
	}
	logger = logger.Level(lvl)

	log.Logger = logger.With().Caller().Logger()
}

// Logger returns the global logger.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child logger tagged with the subsystem name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// checkFields drops an odd-length key/value list instead of letting zerolog
// pair a key with nothing.
func checkFields(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Int("fields_count", len(fields)).
			Str("log_level", level).
			Msg("logx call received an odd number of fields; fields ignored")
		return nil
	}
	return fields
}

// Info logs msg at info level with optional key/value pairs.
func Info(msg string, fields ...any) {
	fields = checkFields("info", fields)
	Logger().Info().Fields(fields).CallerSkipFrame(1).Msg(msg)
}

// Warn logs msg at warn level with optional key/value pairs.
func Warn(msg string, fields ...any) {
	fields = checkFields("warn", fields)
	Logger().Warn().Fields(fields).CallerSkipFrame(1).Msg(msg)
}

// Error logs err and msg at error level with optional key/value pairs.
func Error(err error, msg string, fields ...any) {
	fields = checkFields("error", fields)
	Logger().Error().Err(err).Fields(fields).CallerSkipFrame(1).Msg(msg)
}

// Fatal logs at fatal level and exits the process.
func Fatal(err error, msg string, fields ...any) {
	fields = checkFields("fatal", fields)
	Logger().Fatal().Err(err).Fields(fields).CallerSkipFrame(1).Msg(msg)
}
