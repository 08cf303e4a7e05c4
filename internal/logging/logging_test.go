package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "kasboek-api", "warn", "production")

	logger.Info("dropped")
	logger.Warn("kept", "day_id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "kasboek-api", entry["service"])
	assert.EqualValues(t, 7, entry["day_id"])
}

func TestNew_TextInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "kasboek", "debug", "development").Debug("hello")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "service=kasboek")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "kasboek", "info", "production"))
	ctx = With(ctx, "request_id", "abc")

	FromContext(ctx).Info("scoped")
	assert.Contains(t, buf.String(), `"request_id":"abc"`)
}

func TestFromContext_Default(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
