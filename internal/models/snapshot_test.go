package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRaw() RawTelemetry {
	return RawTelemetry{
		ID:            "rec-1",
		VehicleID:     "UAV-001",
		Timestamp:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Version:       Ptr(uint32(0x030302C4)),
		AutopilotType: AutopilotArduPilotMega,
		VehicleType:   VehicleQuadrotor,
		Capabilities:  1<<CapMissionFloat | 1<<CapFTP | 1<<CapTerrain,
		Battery:       &RawBattery{VoltageMV: 11100, Current: 250, Level: 15},
		Rangefinder:   &Rangefinder{Distance: Ptr(1.2)},
		GPS:           &GPSInfo{EPH: Ptr(121), EPV: Ptr(200), FixType: Ptr(1), SatellitesVisible: Ptr(4)},
		Position:      &RawPosition{Lat: Ptr(-35.363261), Lon: Ptr(149.165230), Alt: Ptr(584.0), RelativeAlt: Ptr(10.0)},
		Local:         &LocationLocal{North: Ptr(3.0), East: Ptr(4.0)},
		Attitude:      &Attitude{Pitch: 0.01, Yaw: 1.2, Roll: -0.02},
		Wind:          &Wind{Direction: 180, Speed: 3},
		Mode:          "GUIDED",
		SystemStatus:  "ACTIVE",
	}
}

func TestNewSnapshot(t *testing.T) {
	s := NewSnapshot(sampleRaw())

	assert.Equal(t, "UAV-001", s.VehicleID)
	assert.Equal(t, "APM:Copter-3.3.2-rc4", s.Version.String())
	assert.Equal(t, []string{"mission_float", "ftp", "terrain"}, s.Capabilities.Enabled())

	require.NotNil(t, s.Battery)
	assert.Equal(t, 11.1, s.Battery.Voltage)
	assert.Equal(t, 2.5, *s.Battery.Current)
	assert.Equal(t, 15, *s.Battery.Level)

	require.NotNil(t, s.Location.Global)
	require.NotNil(t, s.Location.GlobalRelative)
	assert.Equal(t, 584.0, *s.Location.Global.Alt)
	assert.Equal(t, 10.0, *s.Location.GlobalRelative.Alt)
	assert.Same(t, s.Location.Local, s.Location.Global.LocalFrame)
	assert.Same(t, s.Location.Global, s.Location.GlobalRelative.GlobalFrame)

	d, ok := s.DistanceHome()
	require.True(t, ok)
	assert.InDelta(t, 5.0, d, 1e-9)

	assert.True(t, s.Mode.Equal("GUIDED"))
	assert.True(t, s.SystemStatus.Equal("ACTIVE"))
}

func TestNewSnapshot_DoesNotAliasRaw(t *testing.T) {
	raw := sampleRaw()
	s := NewSnapshot(raw)

	*raw.Local.North = 100
	*raw.Position.Lat = 0
	*raw.GPS.FixType = 3
	raw.Attitude.Yaw = 0

	assert.Equal(t, 3.0, *s.Location.Local.North)
	assert.Equal(t, -35.363261, *s.Location.Global.Lat)
	assert.Equal(t, 1, *s.GPS.FixType)
	assert.Equal(t, 1.2, s.Attitude.Yaw)
}

func TestNewSnapshot_Empty(t *testing.T) {
	s := NewSnapshot(RawTelemetry{VehicleID: "UAV-002"})

	assert.Nil(t, s.Version.Major)
	assert.Nil(t, s.Battery)
	assert.Nil(t, s.Rangefinder)
	assert.Nil(t, s.GPS)
	assert.Nil(t, s.Location.Global)
	assert.Nil(t, s.Location.GlobalRelative)
	assert.Nil(t, s.Location.Local)
	_, ok := s.DistanceHome()
	assert.False(t, ok)
	assert.Empty(t, s.Alerts(DefaultLowBatteryPercent))
}

func TestNewSnapshot_Idempotent(t *testing.T) {
	raw := sampleRaw()
	assert.Equal(t, NewSnapshot(raw), NewSnapshot(raw))
}

func TestSnapshot_Report(t *testing.T) {
	r := NewSnapshot(sampleRaw()).Report()

	assert.Equal(t, "APM:Copter-3.3.2-rc4", r.Firmware)
	assert.Equal(t, "rc", r.ReleaseType)
	require.NotNil(t, r.ReleaseVersion)
	assert.Equal(t, 4, *r.ReleaseVersion)
	assert.Equal(t, "no fix", r.GPSFix)
	require.NotNil(t, r.DistanceHome)
	assert.InDelta(t, 5.0, *r.DistanceHome, 1e-9)
	assert.Equal(t, "GUIDED", r.Mode)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "LocalFrame")
	assert.Contains(t, string(data), `"firmware":"APM:Copter-3.3.2-rc4"`)
}

func TestSnapshot_ReportStable(t *testing.T) {
	raw := RawTelemetry{Version: Ptr(uint32(0x040001FF)), AutopilotType: AutopilotPX4, VehicleType: VehicleFixedWing}
	r := NewSnapshot(raw).Report()

	assert.Equal(t, "stable", r.ReleaseType)
	assert.Equal(t, 0, *r.ReleaseVersion)
	assert.Equal(t, []string{}, r.Capabilities)
}

func TestSnapshot_ReportNoVersion(t *testing.T) {
	r := NewSnapshot(RawTelemetry{}).Report()

	assert.Empty(t, r.ReleaseType)
	assert.Nil(t, r.ReleaseVersion)
	assert.Nil(t, r.DistanceHome)
}

func TestSnapshot_Alerts(t *testing.T) {
	alerts := NewSnapshot(sampleRaw()).Alerts(DefaultLowBatteryPercent)

	require.Len(t, alerts, 2)
	assert.Equal(t, AlertLowBattery, alerts[0].Kind)
	assert.Equal(t, "battery at 15% (11.1V)", alerts[0].Description)
	assert.Equal(t, AlertNoGPSFix, alerts[1].Kind)
	assert.Equal(t, "no GPS fix, 4 satellites visible", alerts[1].Description)
	assert.Equal(t, "UAV-001", alerts[1].VehicleID)

	raw := sampleRaw()
	raw.Battery.Level = -1
	raw.GPS.FixType = Ptr(3)
	assert.Empty(t, NewSnapshot(raw).Alerts(DefaultLowBatteryPercent))
}
