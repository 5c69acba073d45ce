package auth

import (
	"log/slog"
	"os"
)

type defLogger struct {
	l *slog.Logger
}

func newDefLogger() defLogger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	return defLogger{l: slog.New(handler).With("component", "auth")}
}

// NewSlogLogger adapts a slog.Logger to Logger.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		return newDefLogger()
	}
	return defLogger{l: l}
}

func (d defLogger) Debug(msg string, args ...any) { d.l.Debug(msg, args...) }
func (d defLogger) Info(msg string, args ...any)  { d.l.Info(msg, args...) }
func (d defLogger) Warn(msg string, args ...any)  { d.l.Warn(msg, args...) }
func (d defLogger) Error(msg string, args ...any) { d.l.Error(msg, args...) }

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return newDefLogger()
	}
	return l
}
