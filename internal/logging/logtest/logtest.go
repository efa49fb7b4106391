// Package logtest provides a logging.Logger that writes through testing.TB,
// so log lines appear next to the test that produced them.
package logtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dreamware/solvernet/internal/logging"
)

// Logger implements logging.Logger on top of t.Logf.
type Logger struct {
	t      testing.TB
	fields []any
}

var _ logging.Logger = (*Logger)(nil)

// New creates a logger that writes through t.Logf.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    log := logtest.New(t)
//	    log.Info("test started", "id", 123)
//	}
func New(t testing.TB) *Logger {
	return &Logger{t: t}
}

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string, keysAndValues ...any) { l.log("DEBUG", msg, keysAndValues) }

// Info logs an info-level message.
func (l *Logger) Info(msg string, keysAndValues ...any) { l.log("INFO", msg, keysAndValues) }

// Warn logs a warn-level message.
func (l *Logger) Warn(msg string, keysAndValues ...any) { l.log("WARN", msg, keysAndValues) }

// Error logs an error-level message.
func (l *Logger) Error(msg string, keysAndValues ...any) { l.log("ERROR", msg, keysAndValues) }

// With returns a child logger carrying the extra fields.
func (l *Logger) With(keysAndValues ...any) logging.Logger {
	fields := make([]any, 0, len(l.fields)+len(keysAndValues))
	fields = append(fields, l.fields...)
	fields = append(fields, keysAndValues...)
	return &Logger{t: l.t, fields: fields}
}

func (l *Logger) log(level, msg string, keysAndValues []any) {
	l.t.Helper()
	all := append(append([]any{}, l.fields...), keysAndValues...)
	l.t.Logf("%s: %s%s", level, msg, formatKeyValues(all))
}

func formatKeyValues(keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, " %v=<missing>", keysAndValues[i])
		}
	}
	return b.String()
}
