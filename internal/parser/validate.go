package parser

import "vehicle-telemetry-monitor/internal/models"

// ValidateTelemetry checks a raw record at the ingest boundary. It rejects
// values no autopilot would send; it does not judge flight modes.
func ValidateTelemetry(t *models.RawTelemetry) []string {
	var errors []string

	if t.VehicleID == "" {
		errors = append(errors, "vehicle_id is required")
	}
	if p := t.Position; p != nil {
		if p.Lat != nil && (*p.Lat < -90 || *p.Lat > 90) {
			errors = append(errors, "latitude must be between -90 and 90")
		}
		if p.Lon != nil && (*p.Lon < -180 || *p.Lon > 180) {
			errors = append(errors, "longitude must be between -180 and 180")
		}
	}
	if t.Battery != nil && t.Battery.VoltageMV < 0 {
		errors = append(errors, "battery voltage cannot be negative")
	}
	if t.GPS != nil && t.GPS.FixType != nil && (*t.GPS.FixType < 0 || *t.GPS.FixType > 3) {
		errors = append(errors, "gps fix type must be between 0 and 3")
	}
	if t.GPS != nil && t.GPS.SatellitesVisible != nil && *t.GPS.SatellitesVisible < 0 {
		errors = append(errors, "satellites visible cannot be negative")
	}

	return errors
}
