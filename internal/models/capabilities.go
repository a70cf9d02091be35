package models

// Capability is a single bit of the autopilot protocol capability mask.
type Capability uint

const (
	CapMissionFloat Capability = iota
	CapParamFloat
	CapMissionInt
	CapCommandInt
	CapParamUnion
	CapFTP
	CapSetAttitudeTarget
	CapSetAttitudeTargetLocalNED
	CapSetAltitudeTargetGlobalInt
	CapTerrain
	CapSetActuatorTarget
	CapFlightTermination
	CapCompassCalibration

	capabilityCount
)

var capabilityNames = [capabilityCount]string{
	"mission_float",
	"param_float",
	"mission_int",
	"command_int",
	"param_union",
	"ftp",
	"set_attitude_target",
	"set_attitude_target_local_ned",
	"set_altitude_target_global_int",
	"terrain",
	"set_actuator_target",
	"flight_termination",
	"compass_calibration",
}

func (c Capability) String() string {
	if c < capabilityCount {
		return capabilityNames[c]
	}
	return "unknown"
}

// Capabilities holds the protocol features an autopilot advertises.
type Capabilities struct {
	Raw                        uint64 `json:"raw"`
	MissionFloat               bool   `json:"mission_float"`
	ParamFloat                 bool   `json:"param_float"`
	MissionInt                 bool   `json:"mission_int"`
	CommandInt                 bool   `json:"command_int"`
	ParamUnion                 bool   `json:"param_union"`
	FTP                        bool   `json:"ftp"`
	SetAttitudeTarget          bool   `json:"set_attitude_target"`
	SetAttitudeTargetLocalNED  bool   `json:"set_attitude_target_local_ned"`
	SetAltitudeTargetGlobalInt bool   `json:"set_altitude_target_global_int"`
	Terrain                    bool   `json:"terrain"`
	SetActuatorTarget          bool   `json:"set_actuator_target"`
	FlightTermination          bool   `json:"flight_termination"`
	CompassCalibration         bool   `json:"compass_calibration"`
}

// DecodeCapabilities tests the defined bits of raw. Bits 13 and up are ignored.
func DecodeCapabilities(raw uint64) Capabilities {
	return Capabilities{
		Raw:                        raw,
		MissionFloat:               hasBit(raw, CapMissionFloat),
		ParamFloat:                 hasBit(raw, CapParamFloat),
		MissionInt:                 hasBit(raw, CapMissionInt),
		CommandInt:                 hasBit(raw, CapCommandInt),
		ParamUnion:                 hasBit(raw, CapParamUnion),
		FTP:                        hasBit(raw, CapFTP),
		SetAttitudeTarget:          hasBit(raw, CapSetAttitudeTarget),
		SetAttitudeTargetLocalNED:  hasBit(raw, CapSetAttitudeTargetLocalNED),
		SetAltitudeTargetGlobalInt: hasBit(raw, CapSetAltitudeTargetGlobalInt),
		Terrain:                    hasBit(raw, CapTerrain),
		SetActuatorTarget:          hasBit(raw, CapSetActuatorTarget),
		FlightTermination:          hasBit(raw, CapFlightTermination),
		CompassCalibration:         hasBit(raw, CapCompassCalibration),
	}
}

func hasBit(raw uint64, c Capability) bool {
	return (raw>>uint(c))&1 == 1
}

// Has reports whether the given capability is set.
func (c Capabilities) Has(capability Capability) bool {
	if capability >= capabilityCount {
		return false
	}
	return hasBit(c.Raw, capability)
}

// Enabled returns the names of the set capabilities in bit order.
func (c Capabilities) Enabled() []string {
	var names []string
	for i := Capability(0); i < capabilityCount; i++ {
		if hasBit(c.Raw, i) {
			names = append(names, capabilityNames[i])
		}
	}
	return names
}
