package logtest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recorder captures Logf output in place of a real test.
type recorder struct {
	testing.TB
	lines []string
}

func (r *recorder) Helper() {}

func (r *recorder) Logf(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func TestLoggerWritesThroughT(t *testing.T) {
	rec := &recorder{TB: t}
	l := New(rec)

	l.With("worker_id", "w1").Info("solve ok", "rows", 3)
	l.Error("odd number of fields", "dangling")

	assert.Equal(t, []string{
		"INFO: solve ok worker_id=w1 rows=3",
		"ERROR: odd number of fields dangling=<missing>",
	}, rec.lines)
}

func TestFormatKeyValues(t *testing.T) {
	assert.Equal(t, "", formatKeyValues(nil))
	assert.Equal(t, " a=1 b=two", formatKeyValues([]any{"a", 1, "b", "two"}))
	assert.Equal(t, " a=<missing>", formatKeyValues([]any{"a"}))
}
