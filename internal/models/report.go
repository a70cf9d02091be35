package models

import "time"

// Report is the display and export view of a Snapshot, with the derived
// values spelled out.
type Report struct {
	ID             string       `json:"id,omitempty"`
	VehicleID      string       `json:"vehicle_id"`
	Timestamp      time.Time    `json:"timestamp"`
	Firmware       string       `json:"firmware"`
	ReleaseType    string       `json:"release_type,omitempty"`
	ReleaseVersion *int         `json:"release_version,omitempty"`
	Version        Version      `json:"version"`
	Capabilities   []string     `json:"capabilities"`
	Battery        *Battery     `json:"battery,omitempty"`
	Rangefinder    *Rangefinder `json:"rangefinder,omitempty"`
	GPS            *GPSInfo     `json:"gps,omitempty"`
	GPSFix         string       `json:"gps_fix,omitempty"`
	Location       Location     `json:"location"`
	DistanceHome   *float64     `json:"distance_home,omitempty"`
	Attitude       *Attitude    `json:"attitude,omitempty"`
	Wind           *Wind        `json:"wind,omitempty"`
	Mode           string       `json:"mode,omitempty"`
	SystemStatus   string       `json:"system_status,omitempty"`
}

// Report builds the export view of s.
func (s Snapshot) Report() Report {
	r := Report{
		ID:           s.ID,
		VehicleID:    s.VehicleID,
		Timestamp:    s.Timestamp,
		Firmware:     s.Version.String(),
		Version:      s.Version,
		Capabilities: s.Capabilities.Enabled(),
		Battery:      s.Battery,
		Rangefinder:  s.Rangefinder,
		GPS:          s.GPS,
		Location:     s.Location,
		Attitude:     s.Attitude,
		Wind:         s.Wind,
		Mode:         s.Mode.Name,
		SystemStatus: s.SystemStatus.State,
	}
	if r.Capabilities == nil {
		r.Capabilities = []string{}
	}

	r.ReleaseType, r.ReleaseVersion = s.Version.ReleaseLabel()

	if s.GPS != nil {
		r.GPSFix = s.GPS.FixLabel()
	}
	if d, ok := s.DistanceHome(); ok {
		r.DistanceHome = &d
	}
	return r
}
