package models

import "fmt"

// Attitude is the vehicle orientation in radians.
type Attitude struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

func (a Attitude) String() string {
	return fmt.Sprintf("Attitude:pitch=%s,yaw=%s,roll=%s", formatFloat(a.Pitch), formatFloat(a.Yaw), formatFloat(a.Roll))
}

// Wind is the wind estimate reported by the autopilot.
type Wind struct {
	Direction float64 `json:"direction"` // degrees
	Speed     float64 `json:"speed"`     // m/s
	SpeedZ    float64 `json:"speed_z"`   // m/s, vertical
}

func (w Wind) String() string {
	return fmt.Sprintf("Wind: wind direction: %s, wind speed: %s, wind speed z: %s",
		formatFloat(w.Direction), formatFloat(w.Speed), formatFloat(w.SpeedZ))
}
