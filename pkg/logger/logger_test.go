package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_Entry(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	log := New(Options{Output: &buf, Level: LevelInfo, AddCaller: true, Now: func() time.Time { return at }})

	log.With(Component("command"), OpportunityID("O001")).
		Info("opportunity approved", Status("APPROVED"), Err(errors.New("x")))

	entries := decode(t, &buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "2025-03-03T09:00:00Z", e["timestamp"])
	assert.Equal(t, "INFO", e["level"])
	assert.Equal(t, "opportunity approved", e["message"])
	assert.Contains(t, e["caller"], "logger_test.go:")

	fields := e["fields"].(map[string]any)
	assert.Equal(t, "command", fields["component"])
	assert.Equal(t, "O001", fields["opportunity_id"])
	assert.Equal(t, "APPROVED", fields["status"])
	assert.Equal(t, "x", fields["error"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: ParseLevel("warn")})

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")
	log.Error("shown")

	entries := decode(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "ERROR", entries[1]["level"])
}

func TestLogger_WithDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Output: &buf})
	child := base.With(UserID("U2310001A"))
	child.With(SessionID("s-1")).Info("one")
	base.Info("two")

	entries := decode(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]any{"user_id": "U2310001A", "session_id": "s-1"}, entries[0]["fields"])
	assert.Nil(t, entries[1]["fields"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel(" debug "))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("chatty"))
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().With(Slots(3)).Error("dropped")
	})
}
