// Package logging provides the structured logger used throughout the daemon.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/octaspace/transfer-manager/internal/events"
)

// Logger wraps zerolog with a daemon-wide console writer and an optional
// hook into the event bus so warnings and errors are also visible to
// anything watching the bus (the control plane's future log-stream consumers).
type Logger struct {
	zlog     zerolog.Logger
	eventBus *events.EventBus
	output   io.Writer
}

// eventBusHook mirrors warn/error log lines onto the event bus.
type eventBusHook struct {
	bus *events.EventBus
}

func (h eventBusHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if h.bus == nil {
		return
	}
	switch level {
	case zerolog.WarnLevel:
		h.bus.PublishLog(events.WarnLevel, msg, nil)
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		h.bus.PublishLog(events.ErrorLevel, msg, nil)
	}
}

// NewLogger creates a logger writing to w (console formatting applied). If
// eventBus is non-nil, warn/error lines are also mirrored onto it.
func NewLogger(w io.Writer, eventBus *events.EventBus) *Logger {
	if w == nil {
		w = os.Stderr
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	zlog := zerolog.New(output).
		Hook(eventBusHook{bus: eventBus}).
		With().Timestamp().Logger()

	return &Logger{zlog: zlog, eventBus: eventBus, output: output}
}

// WrapZerolog adapts an already-constructed zerolog.Logger (e.g. one built
// around daemon.CreateDaemonLogger's fan-out writer, which does its own
// console formatting and rotation) into a *Logger, adding only the
// event-bus mirroring hook on top.
func WrapZerolog(zlog zerolog.Logger, eventBus *events.EventBus) *Logger {
	return &Logger{zlog: zlog.Hook(eventBusHook{bus: eventBus}), eventBus: eventBus}
}

// NewDefaultLogger creates a logger writing to stderr with no event bus.
func NewDefaultLogger() *Logger {
	return NewLogger(os.Stderr, nil)
}

func (l *Logger) Info() *zerolog.Event  { return l.zlog.Info() }
func (l *Logger) Error() *zerolog.Event { return l.zlog.Error() }
func (l *Logger) Debug() *zerolog.Event { return l.zlog.Debug() }
func (l *Logger) Warn() *zerolog.Event  { return l.zlog.Warn() }
func (l *Logger) Fatal() *zerolog.Event { return l.zlog.Fatal() }

// With creates a child logger context.
func (l *Logger) With() zerolog.Context { return l.zlog.With() }

// SetOutput redirects the logger to a new writer, preserving formatting and
// the event-bus hook. A no-op on a logger built with WrapZerolog, whose
// output is owned by the wrapped writer.
func (l *Logger) SetOutput(w io.Writer) {
	if l.output == nil {
		return
	}
	l.output = w
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	l.zlog = zerolog.New(output).
		Hook(eventBusHook{bus: l.eventBus}).
		With().Timestamp().Logger()
}

// Output returns the current output writer, or nil for a WrapZerolog logger.
func (l *Logger) Output() io.Writer { return l.output }

func (l *Logger) Debugf(format string, args ...interface{}) { l.zlog.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.zlog.Info().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zlog.Error().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zlog.Warn().Msgf(format, args...) }

// SetGlobalLevel sets the global zerolog level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}
