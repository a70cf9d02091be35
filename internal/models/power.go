package models

import "fmt"

// unavailable is the raw value the autopilot sends for an unknown battery
// current or level.
const unavailable = -1

// Battery is the system battery state.
type Battery struct {
	Voltage float64  `json:"voltage"`           // volts
	Current *float64 `json:"current,omitempty"` // amps; nil if not measured
	Level   *int     `json:"level,omitempty"`   // percent; nil if not estimated
}

// NewBattery converts raw battery telemetry. voltageMV is in millivolts and
// current in centiamps. A current or level of -1 means unavailable.
func NewBattery(voltageMV, current, level int) Battery {
	b := Battery{Voltage: float64(voltageMV) / 1000.0}
	if current != unavailable {
		amps := float64(current) / 100.0
		b.Current = &amps
	}
	if level != unavailable {
		lvl := level
		b.Level = &lvl
	}
	return b
}

func (b Battery) String() string {
	return fmt.Sprintf("Battery:voltage=%s,current=%s,level=%s",
		formatFloat(b.Voltage), optFloat(b.Current), optInt(b.Level))
}

// Rangefinder holds the distance sensor reading. Both fields are nil when the
// vehicle has no rangefinder.
type Rangefinder struct {
	Distance *float64 `json:"distance,omitempty"` // metres
	Voltage  *float64 `json:"voltage,omitempty"`  // volts
}

// NewRangefinder stores the reading as reported; no sentinel values apply.
func NewRangefinder(distance, voltage *float64) Rangefinder {
	return Rangefinder{Distance: distance, Voltage: voltage}
}

func (r Rangefinder) String() string {
	return fmt.Sprintf("Rangefinder: distance=%s, voltage=%s", optFloat(r.Distance), optFloat(r.Voltage))
}
