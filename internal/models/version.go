package models

import (
	"fmt"
	"strconv"
)

// AutopilotType is the autopilot code reported in the heartbeat message.
type AutopilotType uint8

// VehicleType is the airframe code reported in the heartbeat message.
type VehicleType uint8

const (
	AutopilotArduPilotMega AutopilotType = 3
	AutopilotPX4           AutopilotType = 12
)

const (
	VehicleFixedWing   VehicleType = 1
	VehicleQuadrotor   VehicleType = 2
	VehicleGroundRover VehicleType = 10
)

// stableRelease marks a final release in the low byte of the version word.
const stableRelease = 255

var autopilotPrefixes = map[AutopilotType]string{
	AutopilotArduPilotMega: "APM:",
	AutopilotPX4:           "PX4",
}

var vehiclePrefixes = map[VehicleType]string{
	VehicleQuadrotor:   "Copter-",
	VehicleFixedWing:   "Plane-",
	VehicleGroundRover: "Rover-",
}

var releaseTypes = [4]string{"dev", "alpha", "beta", "rc"}

// Prefix returns the label prefix for the autopilot, e.g. "APM:".
func (a AutopilotType) Prefix() string {
	if p, ok := autopilotPrefixes[a]; ok {
		return p
	}
	return "UnknownAutoPilot"
}

// Prefix returns the label prefix for the vehicle type, e.g. "Copter-".
func (v VehicleType) Prefix() string {
	if p, ok := vehiclePrefixes[v]; ok {
		return p
	}
	return fmt.Sprintf("UnknownVehicleType%d-", v)
}

// Version is the firmware version decoded from the 32-bit version word.
// Major, Minor, Patch and Release are either all set or all nil.
type Version struct {
	Raw           *uint32       `json:"raw,omitempty"`
	Major         *uint8        `json:"major,omitempty"`
	Minor         *uint8        `json:"minor,omitempty"`
	Patch         *uint8        `json:"patch,omitempty"`
	Release       *uint8        `json:"release,omitempty"`
	AutopilotType AutopilotType `json:"autopilot_type"`
	VehicleType   VehicleType   `json:"vehicle_type"`
}

// DecodeVersion splits raw into major, minor, patch and release bytes,
// most significant first. A nil raw yields a Version with no numeric fields.
func DecodeVersion(raw *uint32, autopilot AutopilotType, vehicle VehicleType) Version {
	v := Version{AutopilotType: autopilot, VehicleType: vehicle}
	if raw == nil {
		return v
	}

	word := *raw
	major := uint8(word >> 24 & 0xFF)
	minor := uint8(word >> 16 & 0xFF)
	patch := uint8(word >> 8 & 0xFF)
	release := uint8(word & 0xFF)

	v.Raw = &word
	v.Major = &major
	v.Minor = &minor
	v.Patch = &patch
	v.Release = &release
	return v
}

// IsStable reports whether the firmware is a final release.
func (v Version) IsStable() bool {
	return v.Release != nil && *v.Release == stableRelease
}

// ReleaseVersion returns the ordinal within the release cycle, e.g. 23 for rc23.
// Stable releases report 0.
func (v Version) ReleaseVersion() (int, bool) {
	if v.Release == nil {
		return 0, false
	}
	if *v.Release == stableRelease {
		return 0, true
	}
	return int(*v.Release % 64), true
}

// ReleaseType returns the release cycle name from the top two bits of the
// release byte. It does not special-case stable releases; check IsStable first.
func (v Version) ReleaseType() (string, bool) {
	if v.Release == nil {
		return "", false
	}
	return releaseTypes[*v.Release>>6], true
}

// ReleaseLabel returns the release type for display together with its
// ordinal: "stable" and 0 for final releases, the cycle name otherwise.
// Both are empty when the version is unknown.
func (v Version) ReleaseLabel() (string, *int) {
	if v.IsStable() {
		return "stable", Ptr(0)
	}
	rt, ok := v.ReleaseType()
	if !ok {
		return "", nil
	}
	rv, _ := v.ReleaseVersion()
	return rt, &rv
}

// releaseSuffix returns the trailing part of String, e.g. "-rc4".
func (v Version) releaseSuffix() string {
	label, rv := v.ReleaseLabel()
	switch {
	case rv == nil:
		return "UnknownReleaseType"
	case v.IsStable():
		return ""
	default:
		return "-" + label + strconv.Itoa(*rv)
	}
}

// String renders the version as e.g. "APM:Copter-3.3.2-rc4".
func (v Version) String() string {
	return v.AutopilotType.Prefix() + v.VehicleType.Prefix() +
		optUint8(v.Major) + "." + optUint8(v.Minor) + "." + optUint8(v.Patch) +
		v.releaseSuffix()
}
