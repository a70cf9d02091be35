package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-telemetry-monitor/internal/config"
)

func TestInit_JSON(t *testing.T) {
	require.NoError(t, Init(config.LoggerConfig{Level: "debug", Format: "json"}))

	var buf bytes.Buffer
	SetOutput(&buf)
	WithField("vehicle_id", "UAV-001").Info("snapshot stored")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "snapshot stored", entry["msg"])
	assert.Equal(t, "UAV-001", entry["vehicle_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestInit_BadLevel(t *testing.T) {
	assert.Error(t, Init(config.LoggerConfig{Level: "loud"}))
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "monitor.log")
	require.NoError(t, Init(config.LoggerConfig{Level: "info", Format: "text", FilePath: path, MaxSizeMB: 1}))

	WithFields(logrus.Fields{"file": "a.csv"}).Info("hello")
	WithField("file", "a.csv").Debug("hidden")
	Error("broken")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "level=error")

	SetOutput(os.Stdout)
}
