package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerWritesFields(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	var buf bytes.Buffer
	log := New(InfoLevel, &buf)

	log.WithFields(map[string]interface{}{"component": "feed"}).
		Error("query failed", map[string]interface{}{"error": errors.New("boom"), "user_id": 7})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "query failed", entry["message"])
	assert.Equal(t, "feed", entry["component"])
	assert.Equal(t, "boom", entry["error"])
	assert.EqualValues(t, 7, entry["user_id"])
	assert.Equal(t, "tweetflow", entry["service"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	var buf bytes.Buffer
	log := New(WarnLevel, &buf)

	log.Info("hidden", nil)
	assert.Zero(t, buf.Len())

	log.Warn("shown", nil)
	assert.NotZero(t, buf.Len())
}

func TestWithContextWithoutSpan(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	var buf bytes.Buffer
	log := New(InfoLevel, &buf)

	log.InfoContext(context.Background(), "hello", nil)

	entry := decodeLine(t, &buf)
	_, ok := entry["trace_id"]
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("unknown"))
}
