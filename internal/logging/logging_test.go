package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForVerbosity(t *testing.T) {
	tests := []struct {
		v    int
		want slog.Level
	}{
		{-1, slog.LevelError},
		{0, slog.LevelError},
		{1, slog.LevelWarn},
		{2, slog.LevelInfo},
		{3, slog.LevelDebug},
		{4, LevelTrace},
		{9, LevelTrace},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForVerbosity(tt.v), "verbosity %d", tt.v)
	}
}

func TestParseVerbosity(t *testing.T) {
	for in, want := range map[string]int{"0": 0, "warn": 1, "INFO": 2, " 3 ": 3, "trace": 4} {
		got, err := ParseVerbosity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseVerbosity("loud")
	assert.Error(t, err)
}

func TestNewWithWriterFiltersAndNamesTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, 2)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	logger = NewWithWriter(&buf, 4)
	logger.Log(context.Background(), LevelTrace, "tick")
	assert.Contains(t, buf.String(), "level=TRACE")
}

func TestNewWritesFileWithSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "awake.log")
	logger, closer, err := New(Config{Verbosity: 2, FilePath: path, Session: "abc"})
	require.NoError(t, err)
	logger.Info("hello", "component", "test")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, "session=abc")
	assert.Contains(t, line, "msg=hello")
}

func TestNewGeneratesSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "awake.log")
	logger, closer, err := New(Config{Verbosity: 2, FilePath: path})
	require.NoError(t, err)
	logger.Info("x")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, after, ok := strings.Cut(string(data), "session=")
	require.True(t, ok)
	_, err = uuid.Parse(strings.Fields(after)[0])
	assert.NoError(t, err)
}

func TestDefaultLogPath(t *testing.T) {
	assert.Equal(t, "awake.log", filepath.Base(DefaultLogPath()))
}
