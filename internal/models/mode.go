package models

// VehicleMode is the flight mode name reported by the vehicle, e.g. "GUIDED".
// The set of valid names depends on the vehicle and is not checked here.
type VehicleMode struct {
	Name string
}

// Equal compares the mode against a string, a VehicleMode or a *VehicleMode.
// Any other type compares unequal.
func (m VehicleMode) Equal(other any) bool {
	return tagEqual(m.Name, other)
}

func (m VehicleMode) String() string {
	return "VehicleMode:" + m.Name
}

// SystemStatus is the system state reported by the vehicle, e.g. "STANDBY".
type SystemStatus struct {
	State string
}

// Equal compares the status against a string, a SystemStatus or a *SystemStatus.
// Any other type compares unequal.
func (s SystemStatus) Equal(other any) bool {
	return tagEqual(s.State, other)
}

func (s SystemStatus) String() string {
	return "SystemStatus:" + s.State
}

func tagEqual(value string, other any) bool {
	switch o := other.(type) {
	case string:
		return value == o
	case VehicleMode:
		return value == o.Name
	case *VehicleMode:
		return o != nil && value == o.Name
	case SystemStatus:
		return value == o.State
	case *SystemStatus:
		return o != nil && value == o.State
	default:
		return false
	}
}
