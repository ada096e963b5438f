// Package obslog wraps log/slog with the "log once per occurrence" discipline
// the engine's error model (see §7 of the spec) requires: configuration
// errors, protocol failures, channel failures, and type mismatches are each
// reported exactly once at the point of occurrence and never retried from
// this layer.
package obslog

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// Logger is a minimal structured-logging facade. It exists so call sites
// attach attributes (pv, channelKey, widget, displayFile) instead of
// formatting strings, and so tests can swap in a recording handler.
type Logger struct {
	base *slog.Logger
}

var (
	defaultOnce sync.Once
	defaultLog  *Logger
)

// New wraps an existing *slog.Logger. A nil base falls back to slog.Default().
func New(base *slog.Logger) *Logger {
	if base == nil {
		base = slog.Default()
	}
	return &Logger{base: base}
}

// Default returns the process-wide logger, constructing a text handler on
// stderr the first time it is needed.
func Default() *Logger {
	defaultOnce.Do(func() {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
		defaultLog = New(slog.New(handler))
	})
	return defaultLog
}

func (l *Logger) Info(msg string, attrs ...any) {
	l.base.Log(context.Background(), slog.LevelInfo, msg, attrs...)
}

func (l *Logger) Warn(msg string, attrs ...any) {
	l.base.Log(context.Background(), slog.LevelWarn, msg, attrs...)
}

func (l *Logger) Error(msg string, attrs ...any) {
	l.base.Log(context.Background(), slog.LevelError, msg, attrs...)
}

// ConfigError logs error kind 1 (§7): bad display file, invalid calc
// expression, unknown color index. The caller continues loading; the
// affected element renders in its default never-visible/zero-value state.
func (l *Logger) ConfigError(construct string, err error, attrs ...any) {
	l.Warn("configuration error", append([]any{"construct", construct, "error", err}, attrs...)...)
}

// ProtocolUnavailable logs error kind 2: a CA/PVA context failed to
// initialize. Logged once by the context singleton itself.
func (l *Logger) ProtocolUnavailable(protocol string, err error) {
	l.Error("protocol context unavailable", "protocol", protocol, "error", err)
}

// ChannelFailure logs error kind 3: a channel create/subscribe/get call
// returned an error. The runtime does not retry; it relies on the
// protocol library's own reconnect logic.
func (l *Logger) ChannelFailure(pvName string, err error) {
	l.Warn("channel failure", "pv", pvName, "error", err)
}

// TypeMismatch logs error kind 4: a widget bound to a field whose native
// type doesn't match what the widget expects (e.g. a numeric monitor on a
// non-numeric field). The structural subscription stays alive.
func (l *Logger) TypeMismatch(pvName, widget string) {
	l.Warn("runtime type mismatch", "pv", pvName, "widget", widget)
}
