// Package xlog wraps go.uber.org/zap with the small, level-oriented
// surface the rest of this module calls against, so call sites never
// import zap directly.
package xlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a structured, leveled logger. The zero value is invalid;
// use New or Nop.
type Logger struct {
	z *zap.Logger
}

// New builds a production-configured Logger (JSON, info level) with a
// "component" field identifying the caller.
func New(component string) *Logger {
	z, err := zap.NewProduction()
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z.With(zap.String("component", component))}
}

// Nop returns a Logger that discards everything, for tests.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Debug logs at debug level with structured fields.
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...zap.Field) { l.z.Info(msg, fields...) }

// Warn logs at warn level: protocol invariant violations and recoverable
// network errors surface here.
func (l *Logger) Warn(msg string, fields ...zap.Field) { l.z.Warn(msg, fields...) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Fatal logs at fatal level and terminates the process.
func (l *Logger) Fatal(msg string, fields ...zap.Field) { l.z.Fatal(msg, fields...) }

// With returns a child Logger carrying the given structured fields on
// every subsequent call.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

// Sync flushes any buffered log entries. Call before process exit.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// Core exposes the underlying zapcore.Core, for callers that need to
// tee output into another sink (tests, e.g.).
func (l *Logger) Core() zapcore.Core {
	return l.z.Core()
}
