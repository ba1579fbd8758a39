package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestWithContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	ctx := WithRequestID(context.Background(), "req-42")
	log.WithContext(ctx).Info("hello", "hash", "abc123")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "abc123", entry["hash"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestWithContext_NoRequestID(t *testing.T) {
	log := Discard()
	assert.Same(t, log, log.WithContext(context.Background()))
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "text")
	log.Debug("visible")

	assert.Contains(t, buf.String(), "msg=visible")
}
