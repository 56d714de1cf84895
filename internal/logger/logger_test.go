package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/samvad-hq/samvad-news-search/internal/config"
)

func TestInitWritesJSONWithObjectField(t *testing.T) {
	var buf bytes.Buffer
	log, err := initWithSink(&config.Config{LogLevel: "info"}, &buf)
	require.NoError(t, err)

	log.DebugObj("hidden", "k", 1)
	log.InfoObj("page fetched", "page_result", map[string]any{"offset": 11})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), "expected a single JSON line, got %q", buf.String())
	assert.Equal(t, "page fetched", entry["msg"])
	assert.Equal(t, map[string]any{"offset": float64(11)}, entry["page_result"])
	assert.Contains(t, entry, "ts")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestEnsureReturnsNop(t *testing.T) {
	assert.IsType(t, NopLogger{}, Ensure(nil))
}
