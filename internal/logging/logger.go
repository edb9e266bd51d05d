// Package logging provides the logger used across the client.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface components depend on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// zapLogger backs Logger with a zap sugared logger.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New creates a production logger for the given component.
// Level accepts zap level strings ("debug", "info", "warn", "error");
// anything unrecognized falls back to info.
func New(component, level string) Logger {
	lvl := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		// zap's production config only fails on bad output paths; fall
		// back to a no-op rather than taking the process down.
		return Nop()
	}
	return &zapLogger{sugar: logger.Sugar().Named(component)}
}

// Named returns a child logger scoped to a sub-component.
func Named(l Logger, name string) Logger {
	if zl, ok := l.(*zapLogger); ok {
		return &zapLogger{sugar: zl.sugar.Named(name)}
	}
	return l
}

func (l *zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

// nopLogger discards everything. Used in tests.
type nopLogger struct{}

// Nop returns a logger that discards all output.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
