// Package logging configures zerolog for the gmod binary and hands out
// component loggers.
//
// Log output goes to stderr so command output on stdout stays machine
// readable.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu        sync.Mutex
	logWriter io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
)

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// SetLogWriter replaces the writer used by ConfigureGlobalLogging and NewLogger.
func SetLogWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logWriter = w
}

func writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return logWriter
}

// ParseLevel converts a configured level name. Empty or unknown names map to
// warn; ok reports whether levelStr was recognised.
func ParseLevel(levelStr string) (level zerolog.Level, ok bool) {
	if levelStr == "" {
		return zerolog.WarnLevel, true
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.WarnLevel, false
	}
	return level, true
}

// ConfigureGlobalLogging sets the global level and the package-level logger.
// Debug and trace levels add caller information.
func ConfigureGlobalLogging(levelStr string) zerolog.Level {
	level, ok := ParseLevel(levelStr)
	zerolog.SetGlobalLevel(level)

	ctx := zerolog.New(writer()).With().Timestamp()
	if level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	if !ok {
		log.Warn().Str("logLevel", levelStr).Msg("invalid log level, using warn")
	}
	return level
}

// NewLogger returns a logger tagged with component, writing to the
// configured writer.
func NewLogger(component string, level zerolog.Level) zerolog.Logger {
	return NewLoggerWithWriter(component, level, writer())
}

// NewLoggerWithWriter is NewLogger with an explicit writer.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).With().
		Timestamp().
		Str("component", component).
		Logger()
}
