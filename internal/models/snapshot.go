package models

import "time"

// Location groups the position of a vehicle in its three frames. Any of them
// may be nil.
type Location struct {
	Global         *LocationGlobal         `json:"global,omitempty"`
	GlobalRelative *LocationGlobalRelative `json:"global_relative,omitempty"`
	Local          *LocationLocal          `json:"local,omitempty"`
}

// Snapshot is the decoded state of one vehicle at one point in time. It is
// built once by NewSnapshot and must be treated as read-only; build a new one
// from fresh raw telemetry instead of changing fields.
type Snapshot struct {
	ID           string       `json:"id,omitempty"`
	VehicleID    string       `json:"vehicle_id"`
	Timestamp    time.Time    `json:"timestamp"`
	Version      Version      `json:"version"`
	Capabilities Capabilities `json:"capabilities"`
	Battery      *Battery     `json:"battery,omitempty"`
	Rangefinder  *Rangefinder `json:"rangefinder,omitempty"`
	GPS          *GPSInfo     `json:"gps,omitempty"`
	Location     Location     `json:"location"`
	Attitude     *Attitude    `json:"attitude,omitempty"`
	Wind         *Wind        `json:"wind,omitempty"`
	Mode         VehicleMode  `json:"-"`
	SystemStatus SystemStatus `json:"-"`
}

// NewSnapshot decodes raw into a Snapshot. The result shares no memory with raw.
func NewSnapshot(raw RawTelemetry) Snapshot {
	s := Snapshot{
		ID:           raw.ID,
		VehicleID:    raw.VehicleID,
		Timestamp:    raw.Timestamp,
		Version:      DecodeVersion(raw.Version, raw.AutopilotType, raw.VehicleType),
		Capabilities: DecodeCapabilities(raw.Capabilities),
		Mode:         VehicleMode{Name: raw.Mode},
		SystemStatus: SystemStatus{State: raw.SystemStatus},
	}

	if raw.Battery != nil {
		b := NewBattery(raw.Battery.VoltageMV, raw.Battery.Current, raw.Battery.Level)
		s.Battery = &b
	}
	if raw.Rangefinder != nil {
		r := NewRangefinder(clone(raw.Rangefinder.Distance), clone(raw.Rangefinder.Voltage))
		s.Rangefinder = &r
	}
	if raw.GPS != nil {
		s.GPS = &GPSInfo{
			EPH:               clone(raw.GPS.EPH),
			EPV:               clone(raw.GPS.EPV),
			FixType:           clone(raw.GPS.FixType),
			SatellitesVisible: clone(raw.GPS.SatellitesVisible),
		}
	}
	if raw.Attitude != nil {
		a := *raw.Attitude
		s.Attitude = &a
	}
	if raw.Wind != nil {
		w := *raw.Wind
		s.Wind = &w
	}

	if raw.Local != nil {
		s.Location.Local = &LocationLocal{
			North: clone(raw.Local.North),
			East:  clone(raw.Local.East),
			Down:  clone(raw.Local.Down),
		}
	}
	if p := raw.Position; p != nil {
		s.Location.Global = &LocationGlobal{
			Lat:        clone(p.Lat),
			Lon:        clone(p.Lon),
			Alt:        clone(p.Alt),
			LocalFrame: s.Location.Local,
		}
		s.Location.GlobalRelative = &LocationGlobalRelative{
			Lat:         clone(p.Lat),
			Lon:         clone(p.Lon),
			Alt:         clone(p.RelativeAlt),
			LocalFrame:  s.Location.Local,
			GlobalFrame: s.Location.Global,
		}
	}
	return s
}

// DistanceHome is a shortcut for Location.Local.DistanceHome.
func (s Snapshot) DistanceHome() (float64, bool) {
	if s.Location.Local == nil {
		return 0, false
	}
	return s.Location.Local.DistanceHome()
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
