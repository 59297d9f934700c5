package utils

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Debug("hidden", nil)
	logger.Info("dream stored", map[string]interface{}{"id": "abc", "intensity": 42.5})
	logger.SetLogLevel(ERROR)
	logger.Warn("also hidden", nil)
	logger.Errorf("analysis failed for %s", "xyz")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "dream stored")
	assert.Contains(t, out, "id=abc")
	assert.Contains(t, out, "intensity=42.5")
	assert.Contains(t, out, "analysis failed for xyz")
}

func TestLoggerDisable(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Enable(false)
	logger.Info("nothing", nil)
	assert.Empty(t, buf.String())
}

func TestFlattenFieldsIsSorted(t *testing.T) {
	got := flattenFields(map[string]interface{}{"b": 2, "a": 1})
	assert.Equal(t, []interface{}{"a", 1, "b", 2}, got)
	assert.Nil(t, flattenFields(nil))
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{"debug": DEBUG, "INFO": INFO, "": INFO, "warn": WARNING, "error": ERROR} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestInitLoggerCreatesDailyFile(t *testing.T) {
	dir := t.TempDir()
	path, err := InitLogger(dir)
	require.NoError(t, err)
	defer GetLogger().Close()

	assert.True(t, strings.HasPrefix(path, dir))
	assert.Contains(t, path, "dreambank-")

	GetLogger().Info("written to file", nil)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
