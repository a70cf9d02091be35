package models

import (
	"encoding/json"
	"time"
)

// RawTelemetry is one telemetry record as supplied by the link layer:
// integers and readings exactly as the autopilot reported them.
type RawTelemetry struct {
	ID            string         `json:"id,omitempty"`
	VehicleID     string         `json:"vehicle_id"`
	Timestamp     time.Time      `json:"timestamp"`
	Version       *uint32        `json:"version,omitempty"`
	AutopilotType AutopilotType  `json:"autopilot_type"`
	VehicleType   VehicleType    `json:"vehicle_type"`
	Capabilities  uint64         `json:"capabilities"`
	Battery       *RawBattery    `json:"battery,omitempty"`
	Rangefinder   *Rangefinder   `json:"rangefinder,omitempty"`
	GPS           *GPSInfo       `json:"gps,omitempty"`
	Position      *RawPosition   `json:"position,omitempty"`
	Local         *LocationLocal `json:"local,omitempty"`
	Attitude      *Attitude      `json:"attitude,omitempty"`
	Wind          *Wind          `json:"wind,omitempty"`
	Mode          string         `json:"mode,omitempty"`
	SystemStatus  string         `json:"system_status,omitempty"`
}

// RawBattery is the battery status in protocol units: millivolts,
// centiamps and percent, with -1 for an unavailable current or level.
type RawBattery struct {
	VoltageMV int `json:"voltage_mv"`
	Current   int `json:"current"`
	Level     int `json:"level"`
}

// UnmarshalJSON treats a missing current or level as unavailable rather
// than zero.
func (b *RawBattery) UnmarshalJSON(data []byte) error {
	type plain RawBattery
	p := plain{Current: unavailable, Level: unavailable}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = RawBattery(p)
	return nil
}

// RawPosition is the global position report. Alt is above mean sea level,
// RelativeAlt above home.
type RawPosition struct {
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Alt         *float64 `json:"alt,omitempty"`
	RelativeAlt *float64 `json:"relative_alt,omitempty"`
}

// Vehicle represents a monitored vehicle
type Vehicle struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	AutopilotType AutopilotType `json:"autopilot_type"`
	VehicleType   VehicleType   `json:"vehicle_type"`
	CreatedAt     time.Time     `json:"created_at"`
}

// TelemetryQuery represents query parameters for telemetry searches
type TelemetryQuery struct {
	VehicleID string
	StartTime time.Time
	EndTime   time.Time
	Mode      string
	Limit     int
	Offset    int
}

// TelemetrySummary provides aggregated statistics
type TelemetrySummary struct {
	VehicleID       string   `json:"vehicle_id"`
	TotalRecords    int      `json:"total_records"`
	AvgVoltage      *float64 `json:"avg_voltage,omitempty"`
	MinVoltage      *float64 `json:"min_voltage,omitempty"`
	MaxDistanceHome *float64 `json:"max_distance_home,omitempty"`
	LatestFirmware  string   `json:"latest_firmware,omitempty"`
}
