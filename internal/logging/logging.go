// Package logging provides GRIMOIRE's default ports.LoggerPort
// implementation, a thin zerolog adapter in the shape of the pack's
// structured-logging contract: key/value fields, a With() that
// returns a derived logger carrying fixed fields, and one method per
// level.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/wyrdbound/grimoire/internal/ports"
)

// ZerologLogger adapts zerolog.Logger to ports.LoggerPort.
type ZerologLogger struct {
	log zerolog.Logger
}

// Options configures a ZerologLogger.
type Options struct {
	Writer        io.Writer
	Level         string
	HumanReadable bool
}

// New builds a ZerologLogger. An empty/unknown Level defaults to info.
func New(opts Options) *ZerologLogger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if opts.HumanReadable {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return &ZerologLogger{log: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// With returns a derived logger that always carries the supplied
// fields.
func (l *ZerologLogger) With(fields map[string]any) ports.LoggerPort {
	ctx := l.log.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &ZerologLogger{log: ctx.Logger()}
}

// Log implements ports.LoggerPort.
func (l *ZerologLogger) Log(level ports.LogLevel, msg string, fields map[string]any) {
	var evt *zerolog.Event
	switch level {
	case ports.LevelDebug:
		evt = l.log.Debug()
	case ports.LevelWarn:
		evt = l.log.Warn()
	case ports.LevelError:
		evt = l.log.Error()
	case ports.LevelEvent:
		evt = l.log.Info().Str("kind", "event")
	default:
		evt = l.log.Info()
	}
	for k, v := range fields {
		evt = evt.Interface(k, v)
	}
	evt.Msg(msg)
}

// NoOp is a LoggerPort that discards everything, used by tests that
// don't want to assert on log output.
type NoOp struct{}

func (NoOp) Log(ports.LogLevel, string, map[string]any)       {}
func (n NoOp) With(map[string]any) ports.LoggerPort           { return n }
