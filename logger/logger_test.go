package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_JSON(t *testing.T) {
	t.Setenv("ENV", "")
	require := require.New(t)

	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, InfoLevel, false)

	l.Debug("hidden")
	require.Zero(buf.Len())

	l.With("conn", "panel").Info("frame received", "type", "ZC")

	var rec map[string]any
	require.NoError(json.Unmarshal(buf.Bytes(), &rec))
	require.Equal("frame received", rec["msg"])
	require.Equal("ZC", rec["type"])
	require.Equal("panel", rec["conn"])
	require.Contains(rec, "ts")
	require.NotContains(rec, "time")
}

func TestSlogLogger_Level(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, WarnLevel, false)
	assert.Equal(WarnLevel, l.Level())

	child := l.With("k", "v")
	l.SetLevel(DebugLevel)
	assert.Equal(DebugLevel, l.Level())
	assert.Equal(DebugLevel, child.Level())

	child.Debug("visible")
	assert.Contains(buf.String(), "visible")
}

func TestParseLevel(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(DebugLevel, ParseLevel("debug"))
	assert.Equal(InfoLevel, ParseLevel("info"))
	assert.Equal(WarnLevel, ParseLevel("warn"))
	assert.Equal(ErrorLevel, ParseLevel("error"))
	assert.Equal(FatalLevel, ParseLevel("fatal"))
	assert.Equal(InfoLevel, ParseLevel("verbose"))
}

func TestNewFileSlog(t *testing.T) {
	t.Setenv("ENV", "")
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "elkm1.log")
	l, closer := NewFileSlog(RotateConfig{Filename: path, MaxSizeMB: 1}, InfoLevel, false)
	l.Info("connected", "host", "127.0.0.1")
	require.NoError(closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(err)
	require.Contains(string(data), `"msg":"connected"`)
}

func TestSetLogger(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	m := NewMockLogger()
	m.On("Info", "hello", []any{"k", 1}).Return()
	SetLogger(m)
	Info("hello", "k", 1)
	m.AssertExpectations(t)

	SetLogger(nil)
	assert.Same(t, m, GetLogger())
}

func TestMockLogger_Entries(t *testing.T) {
	require := require.New(t)

	m := NewMockLogger().AllowAll()
	m.Debug("frame sent", "frame", "06as0066")
	m.Warn("failed to decode frame", "line", "ab")
	m.Error("failed to read from panel")

	require.Len(m.Entries(DebugLevel), 3)

	entries := m.Entries(WarnLevel)
	require.Len(entries, 2)
	require.Equal("failed to decode frame", entries[0].Msg)
	require.Equal([]any{"line", "ab"}, entries[0].KeysAndValues)
	require.Equal(ErrorLevel, entries[1].Level)

	m.AssertCalled(t, "Warn", "failed to decode frame", []any{"line", "ab"})
}
