package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide base logger.
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"}).
	With().Timestamp().Logger()

// Initialize configures the base logger and global level. Unknown levels
// fall back to info.
func Initialize(level string) {
	InitializeWith(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}, level)
}

// InitializeWith is Initialize with an explicit writer.
func InitializeWith(w io.Writer, level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	Logger = zerolog.New(w).
		With().
		Timestamp().
		Logger()

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = Logger
}

// GetForComponent returns a child logger tagged with a component field.
// Component loggers are resolved at call time, so a later Initialize is
// picked up by Component handles too.
func GetForComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// Component is a lazily bound component logger for package-level vars.
type Component string

// L returns the component logger bound to the current base logger.
func (c Component) L() *zerolog.Logger {
	l := GetForComponent(string(c))
	return &l
}
