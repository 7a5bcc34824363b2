package logging

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a Logger whose entries are captured in memory, at every
// level including Trace.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

// NewTestLogger returns a capturing logger.
func NewTestLogger() *TestLogger {
	core, observed := observer.New(TraceLevel)
	return &TestLogger{
		Logger:   &Logger{zap: zap.New(core)},
		observed: observed,
	}
}

// All returns every captured entry in order.
func (t *TestLogger) All() []observer.LoggedEntry {
	return t.observed.All()
}

// Reset drops the captured entries.
func (t *TestLogger) Reset() {
	t.observed.TakeAll()
}

// matching returns the entries whose message contains msg, optionally
// restricted to one level.
func (t *TestLogger) matching(msg string, level *zapcore.Level) []observer.LoggedEntry {
	var out []observer.LoggedEntry
	for _, e := range t.observed.All() {
		if level != nil && e.Level != *level {
			continue
		}
		if strings.Contains(e.Message, msg) {
			out = append(out, e)
		}
	}
	return out
}

// AssertLogged fails tb unless an entry at level contains msg.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if len(t.matching(msg, &level)) == 0 {
		tb.Errorf("no %v entry containing %q; captured: %s", level, msg, t.summary())
	}
}

// AssertField fails tb unless an entry containing msg carries key=expected.
// Integer fields compare as int64, durations as time.Duration.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, expected interface{}) {
	tb.Helper()
	for _, e := range t.matching(msg, nil) {
		if v, ok := e.ContextMap()[key]; ok && reflect.DeepEqual(v, expected) {
			return
		}
	}
	tb.Errorf("no entry containing %q with %s=%v; captured: %s", msg, key, expected, t.summary())
}

func (t *TestLogger) summary() string {
	entries := t.observed.All()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Level.String() + " " + e.Message
	}
	return "[" + strings.Join(lines, "; ") + "]"
}
