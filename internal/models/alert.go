package models

import (
	"fmt"
	"time"
)

// Alert kinds.
const (
	AlertLowBattery = "low_battery"
	AlertNoGPSFix   = "no_gps_fix"
)

// DefaultLowBatteryPercent is the battery level below which an alert is raised.
const DefaultLowBatteryPercent = 20

// Alert represents a condition on a snapshot that needs attention
type Alert struct {
	ID          string    `json:"id,omitempty"`
	VehicleID   string    `json:"vehicle_id"`
	Timestamp   time.Time `json:"timestamp"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
}

// Alerts returns the alerts raised by s. Unknown battery levels and GPS fix
// types never raise an alert.
func (s Snapshot) Alerts(lowBatteryPercent int) []Alert {
	var alerts []Alert
	if s.Battery != nil && s.Battery.Level != nil && *s.Battery.Level < lowBatteryPercent {
		alerts = append(alerts, s.alert(AlertLowBattery,
			fmt.Sprintf("battery at %d%% (%sV)", *s.Battery.Level, formatFloat(s.Battery.Voltage))))
	}
	if s.GPS != nil && s.GPS.FixType != nil && *s.GPS.FixType <= FixNone {
		alerts = append(alerts, s.alert(AlertNoGPSFix,
			fmt.Sprintf("no GPS fix, %s satellites visible", optInt(s.GPS.SatellitesVisible))))
	}
	return alerts
}

func (s Snapshot) alert(kind, description string) Alert {
	return Alert{
		ID:          s.ID,
		VehicleID:   s.VehicleID,
		Timestamp:   s.Timestamp,
		Kind:        kind,
		Description: description,
	}
}
