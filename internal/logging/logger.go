// Package logging provides the structured logger shared by the balancer,
// the workers and the command line tools.
//
// All log calls take a message followed by alternating key/value pairs:
//
//	log.Info("dispatched request", "worker_id", "worker-2", "request_id", id)
//
// Production processes use the zap-backed implementation returned by New.
// Library code that was handed no logger falls back to NewNop. Tests use
// the logtest subpackage so that output is attached to the running test.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines methods for structured logging.
//
// Compatible with zap.SugaredLogger. All methods accept key-value pairs for
// structured fields.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// With returns a child logger that adds the given key-value pairs to
	// every entry it writes.
	With(keysAndValues ...any) Logger
}

// ZapLogger implements Logger on top of a zap SugaredLogger.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

var _ Logger = (*ZapLogger)(nil)

// New builds a production zap logger writing JSON to stderr at the given
// level ("debug", "info", "warn", "error"). Unknown levels fall back to info.
//
// Parameters:
//   - level: Minimum level to emit
//
// Returns:
//   - *ZapLogger: Logger ready for use
//   - error: If zap fails to build its sinks
func New(level string) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return &ZapLogger{logger: logger.Sugar()}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: l.Sugar()}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Debug implements Logger.Debug
func (l *ZapLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

// Info implements Logger.Info
func (l *ZapLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Infow(msg, keysAndValues...)
}

// Warn implements Logger.Warn
func (l *ZapLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warnw(msg, keysAndValues...)
}

// Error implements Logger.Error
func (l *ZapLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, keysAndValues...)
}

// With implements Logger.With
func (l *ZapLogger) With(keysAndValues ...any) Logger {
	return &ZapLogger{logger: l.logger.With(keysAndValues...)}
}

// Sync flushes any buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// NopLogger discards all log messages.
type NopLogger struct{}

var _ Logger = NopLogger{}

// NewNop returns a logger that discards everything.
func NewNop() NopLogger { return NopLogger{} }

// Debug discards the message.
func (NopLogger) Debug(string, ...any) {}

// Info discards the message.
func (NopLogger) Info(string, ...any) {}

// Warn discards the message.
func (NopLogger) Warn(string, ...any) {}

// Error discards the message.
func (NopLogger) Error(string, ...any) {}

// With returns the same no-op logger.
func (n NopLogger) With(...any) Logger { return n }
