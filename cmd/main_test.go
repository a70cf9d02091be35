package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-telemetry-monitor/internal/codec"
	"vehicle-telemetry-monitor/internal/models"
	"vehicle-telemetry-monitor/internal/parser"
)

func TestSampleVersion(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		ver := models.DecodeVersion(models.Ptr(sampleVersion(rng)), models.AutopilotArduPilotMega, models.VehicleQuadrotor)
		assert.Contains(t, []uint8{3, 4}, *ver.Major)
		if !ver.IsStable() {
			rv, ok := ver.ReleaseVersion()
			assert.True(t, ok)
			assert.Less(t, rv, 64)
		}
	}
}

func TestSampleTelemetryIsValid(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, frame := range sampleFrames {
		veh := models.Vehicle{ID: "UAV-001", AutopilotType: models.AutopilotPX4, VehicleType: frame}
		for i := 0; i < 50; i++ {
			raw := sampleTelemetry(rng, veh, 0x040001FF, ts)
			assert.Empty(t, parser.ValidateTelemetry(&raw))

			s := models.NewSnapshot(raw)
			assert.Equal(t, frame, s.Version.VehicleType)
			assert.Contains(t, sampleModes[frame], s.Mode.Name)
			_, ok := s.DistanceHome()
			assert.True(t, ok)
		}
	}
}

func TestNewestPerVehicle(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []models.RawTelemetry{
		{VehicleID: "UAV-001", Timestamp: ts.Add(2 * time.Second), Mode: "AUTO"},
		{VehicleID: "UAV-002", Timestamp: ts, Mode: "LOITER"},
		{VehicleID: "UAV-001", Timestamp: ts, Mode: "GUIDED"},
		{VehicleID: "UAV-002", Timestamp: ts.Add(time.Second), Mode: "RTL"},
	}

	got := newestPerVehicle(records)
	require.Len(t, got, 2)
	assert.Equal(t, "AUTO", got[0].Mode)
	assert.Equal(t, "RTL", got[1].Mode)
	assert.Empty(t, newestPerVehicle(nil))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	reports := []models.Report{models.NewSnapshot(models.RawTelemetry{VehicleID: "UAV-001"}).Report()}

	path := filepath.Join(dir, "export.yaml")
	require.NoError(t, writeFile(path, codec.YAML, reports))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vehicle_id: UAV-001")

	err = writeFile(filepath.Join(dir, "export.xml"), "xml", reports)
	assert.ErrorIs(t, err, codec.ErrUnsupportedFormat)

	err = writeFile(filepath.Join(dir, "missing", "export.json"), codec.JSON, reports)
	assert.Error(t, err)
}
