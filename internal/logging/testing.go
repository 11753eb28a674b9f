package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger wraps a zap logger whose output is captured in memory so
// tests can assert on emitted entries.
type TestLogger struct {
	Logger *zap.Logger
	logs   *observer.ObservedLogs
}

// NewTestLogger creates a logger that records every entry at debug
// level and above.
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return &TestLogger{
		Logger: zap.New(core),
		logs:   logs,
	}
}

// All returns every captured entry.
func (tl *TestLogger) All() []observer.LoggedEntry {
	return tl.logs.All()
}

// FilterMessage returns captured entries with the exact message.
func (tl *TestLogger) FilterMessage(msg string) []observer.LoggedEntry {
	return tl.logs.FilterMessage(msg).All()
}

// AssertLogged fails the test if no entry with the message was
// recorded.
func (tl *TestLogger) AssertLogged(t *testing.T, msg string) {
	t.Helper()
	if len(tl.FilterMessage(msg)) == 0 {
		t.Errorf("expected log message %q, got none", msg)
	}
}
