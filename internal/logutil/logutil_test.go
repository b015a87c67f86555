package logutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), buf
}

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestNewTimingLogger(t *testing.T) {
	logger, buf := newTestLogger()

	done := NewTimingLogger(logger, time.Now(), "executed sql query", "method", "CreateUser")
	done()

	entry := lastLogLine(t, buf)
	assert.Equal(t, "executed sql query", entry["msg"])
	assert.Equal(t, "CreateUser", entry["method"])
	assert.NotEmpty(t, entry["duration"])
}

func TestLogAndWrapErr(t *testing.T) {
	logger, buf := newTestLogger()
	cause := errors.New("disk full")

	err := LogAndWrapErr(logger, "failed to create user", cause, "email", "a@x.com")
	require.Error(t, err)

	// Wrapped error keeps the chain intact.
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to create user")

	entry := lastLogLine(t, buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "a@x.com", entry["email"])
}

func TestLogAndWrapErr_NilErr(t *testing.T) {
	logger, buf := newTestLogger()

	assert.NoError(t, LogAndWrapErr(logger, "should not log", nil))
	assert.Zero(t, buf.Len())
}

func TestDebugAndWrapErr(t *testing.T) {
	logger, buf := newTestLogger()
	cause := errors.New("no rows")

	err := DebugAndWrapErr(logger, "failed to get session", cause, "session id", "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	entry := lastLogLine(t, buf)
	assert.Equal(t, "DEBUG", entry["level"])
}

func TestWithFields(t *testing.T) {
	logger, buf := newTestLogger()

	WithFields(logger, "component", "sessionstore").Info("created session")

	entry := lastLogLine(t, buf)
	assert.Equal(t, "sessionstore", entry["component"])
}
