// Package logger provides structured logging using zerolog.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const matchIDKey contextKey = "match_id"

const milliTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// maxLoggedPayload caps how much of a command payload is written at debug.
const maxLoggedPayload = 1000

// Options controls where and how much the global logger writes.
type Options struct {
	Level   zerolog.Level
	Dev     bool   // colored console output
	LogFile string // optional file that receives a copy of every line
}

// OptionsFromEnv reads LOG_LEVEL, LOG_FILE and the DEV flags.
func OptionsFromEnv() Options {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return Options{
		Level:   level,
		Dev:     isDevelopmentMode(),
		LogFile: os.Getenv("LOG_FILE"),
	}
}

// Init configures the global logger from the environment. Output goes to
// stderr so tools can keep stdout for their results. The returned func
// closes LOG_FILE, if one was opened.
func Init() func() {
	return Configure(os.Stderr, OptionsFromEnv())
}

// Configure points the global logger at w with the given options and
// returns a func that closes the log file.
func Configure(w io.Writer, opts Options) func() {
	zerolog.TimeFieldFormat = milliTimeFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	zerolog.CallerMarshalFunc = shortCaller
	zerolog.SetGlobalLevel(opts.Level)

	var output io.Writer = zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: milliTimeFormat,
		NoColor:    !opts.Dev,
	}
	closeFile := func() {}
	var fileErr error
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fileErr = err
		} else {
			output = io.MultiWriter(output, f)
			closeFile = func() { f.Close() }
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()
	if fileErr != nil {
		log.Warn().Err(fileErr).Str("file", opts.LogFile).Msg("Log file unavailable, logging to console only")
	}
	log.Debug().Str("level", opts.Level.String()).Bool("dev", opts.Dev).Msg("Logger initialized")
	return closeFile
}

const callerWidth = 30

// shortCaller renders file:line padded or clipped to a fixed width.
func shortCaller(_ uintptr, file string, line int) string {
	path := fmt.Sprintf("%s:%d", filepath.Base(file), line)
	if len(path) >= callerWidth {
		return path[len(path)-callerWidth:]
	}
	return path + strings.Repeat(" ", callerWidth-len(path))
}

func isDevelopmentMode() bool {
	for _, key := range []string{"DEV", "DEV_MODE", "DEVELOPMENT"} {
		if os.Getenv(key) == "true" {
			return true
		}
	}
	return false
}

// Get returns the global logger instance.
func Get() zerolog.Logger {
	return log.Logger
}

// WithMatchID returns a new context carrying the match ID.
func WithMatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, matchIDKey, id)
}

// MatchIDFromContext extracts the match ID from context, or empty string.
func MatchIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(matchIDKey).(string)
	return id
}

// ForMatch returns a logger enriched with the match ID from context.
func ForMatch(ctx context.Context) zerolog.Logger {
	id := MatchIDFromContext(ctx)
	if id == "" {
		return log.Logger
	}
	return log.Logger.With().Str("matchId", id).Logger()
}

// LogCommand logs an encoded command at debug level, truncating if too long.
func LogCommand(logger zerolog.Logger, body []byte) {
	if len(body) == 0 {
		return
	}
	if len(body) > maxLoggedPayload {
		logger.Debug().Str("command", string(body[:maxLoggedPayload])).Bool("truncated", true).Msg("Command")
	} else {
		logger.Debug().Str("command", string(body)).Msg("Command")
	}
}
