package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-telemetry-monitor/internal/codec"
	"vehicle-telemetry-monitor/internal/db"
	"vehicle-telemetry-monitor/internal/logger"
	"vehicle-telemetry-monitor/internal/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger.SetOutput(io.Discard)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	database, err := db.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewServer(database, nil, models.DefaultLowBatteryPercent)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    *meta           `json:"meta"`
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	rec, env := do(t, newTestServer(t), "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"status":"healthy"}`, string(env.Data))
}

func TestVehicleEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, _ := do(t, s, "POST", "/api/v1/vehicles", `{"id":"UAV-001","name":"Alpha","autopilot_type":3,"vehicle_type":2}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, env := do(t, s, "POST", "/api/v1/vehicles", `{"id":"UAV-002"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	rec, env = do(t, s, "GET", "/api/v1/vehicles/UAV-001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var v models.Vehicle
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, "Alpha", v.Name)
	assert.Equal(t, models.AutopilotArduPilotMega, v.AutopilotType)

	rec, _ = do(t, s, "GET", "/api/v1/vehicles/UAV-404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = do(t, s, "GET", "/api/v1/vehicles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var vehicles []models.Vehicle
	require.NoError(t, json.Unmarshal(env.Data, &vehicles))
	assert.Len(t, vehicles, 1)
}

const rawRecord = `{
	"vehicle_id": "UAV-001",
	"timestamp": "2026-03-01T12:00:00Z",
	"version": 50528964,
	"autopilot_type": 3,
	"vehicle_type": 2,
	"capabilities": 33,
	"battery": {"voltage_mv": 11100, "current": 250, "level": 10},
	"local": {"north": 3, "east": 4},
	"mode": "GUIDED"
}`

func TestTelemetryEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, "POST", "/api/v1/telemetry", rawRecord)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Report
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "APM:Copter-3.3.2-rc4", created.Firmware)
	assert.Equal(t, []string{"mission_float", "ftp"}, created.Capabilities)
	require.NotNil(t, created.Battery)
	assert.Equal(t, 11.1, created.Battery.Voltage)
	assert.Equal(t, 5.0, *created.DistanceHome)

	rec, _ = do(t, s, "POST", "/api/v1/telemetry", `{"vehicle_id":"UAV-001","position":{"lat":95}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	batch := `[
		{"vehicle_id": "UAV-001", "timestamp": "2026-03-01T12:01:00Z", "battery": {"voltage_mv": 12000, "current": -1, "level": -1}},
		{"vehicle_id": "UAV-002", "timestamp": "2026-03-01T12:01:00Z", "mode": "AUTO"}
	]`
	rec, env = do(t, s, "POST", "/api/v1/telemetry/batch", batch)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"inserted":2}`, string(env.Data))

	rec, _ = do(t, s, "POST", "/api/v1/telemetry/batch", `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, s, "GET", "/api/v1/telemetry?vehicle_id=UAV-001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var results []models.Report
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Len(t, results, 2)
	assert.Equal(t, 2, env.Meta.Total)

	rec, _ = do(t, s, "GET", "/api/v1/telemetry?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, s, "GET", "/api/v1/telemetry/latest/UAV-001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var latest models.Report
	require.NoError(t, json.Unmarshal(env.Data, &latest))
	assert.Equal(t, 12.0, latest.Battery.Voltage)
	assert.Nil(t, latest.Battery.Current)
	assert.Nil(t, latest.Battery.Level)

	rec, _ = do(t, s, "GET", "/api/v1/telemetry/latest/UAV-404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = do(t, s, "GET", "/api/v1/telemetry/summary/UAV-001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary models.TelemetrySummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 2, summary.TotalRecords)

	rec, env = do(t, s, "GET", "/api/v1/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var alerts []models.Alert
	require.NoError(t, json.Unmarshal(env.Data, &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertLowBattery, alerts[0].Kind)

	rec, env = do(t, s, "GET", "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_telemetry_records":3,"total_vehicles":0,"alert_records":1}`, string(env.Data))
}

func TestCreateTelemetry_BatteryVoltageOnly(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, "POST", "/api/v1/telemetry", `{"vehicle_id":"UAV-001","battery":{"voltage_mv":12000}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Report
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotNil(t, created.Battery)
	assert.Equal(t, 12.0, created.Battery.Voltage)
	assert.Nil(t, created.Battery.Current)
	assert.Nil(t, created.Battery.Level)

	rec, env = do(t, s, "GET", "/api/v1/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestDecodeVersionEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, "GET", "/api/v1/decode/version?raw=0x040001FF&autopilot=12&vehicle=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "PX4Plane-4.0.1", got["label"])
	assert.Equal(t, true, got["stable"])
	assert.Equal(t, "stable", got["release_type"])
	assert.Equal(t, float64(4), got["major"])

	rec, env = do(t, s, "GET", "/api/v1/decode/version?vehicle=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got = nil
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "UnknownAutoPilotCopter-None.None.NoneUnknownReleaseType", got["label"])
	assert.NotContains(t, got, "major")
	assert.NotContains(t, got, "release_type")

	rec, _ = do(t, s, "GET", "/api/v1/decode/version?raw=0x1FFFFFFFF", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecodeCapabilitiesEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, "GET", "/api/v1/decode/capabilities?raw=0x1820", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, []any{"ftp", "flight_termination", "compass_calibration"}, got["enabled"])
	assert.Equal(t, true, got["ftp"])
	assert.Equal(t, false, got["terrain"])

	rec, _ = do(t, s, "GET", "/api/v1/decode/capabilities", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResponseFormats(t *testing.T) {
	s := newTestServer(t)

	rec, _ := do(t, s, "GET", "/api/v1/decode/capabilities?raw=1&format=yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "mission_float: true")

	rec, _ = do(t, s, "GET", "/api/v1/decode/capabilities?raw=1&format=cbor", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/cbor", rec.Header().Get("Content-Type"))
	var decoded map[string]any
	require.NoError(t, codec.DecodeCBOR(rec.Body.Bytes(), &decoded))
	assert.Equal(t, true, decoded["success"])

	rec, _ = do(t, s, "GET", "/health?format=xml", "")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(bytes.TrimSpace(rec.Body.Bytes()), []byte("{")))
}
