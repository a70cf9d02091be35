package models

import (
	"fmt"
	"math"
)

// LocationGlobal is a WGS84 position with altitude above mean sea level.
//
// LocalFrame and GlobalFrame are lookup links kept for older callers. They
// do not own the referenced objects and are not serialized.
type LocationGlobal struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
	Alt *float64 `json:"alt,omitempty"`

	LocalFrame  *LocationLocal  `json:"-"`
	GlobalFrame *LocationGlobal `json:"-"`
}

func (l LocationGlobal) String() string {
	return fmt.Sprintf("LocationGlobal:lat=%s,lon=%s,alt=%s", optFloat(l.Lat), optFloat(l.Lon), optFloat(l.Alt))
}

// LocationGlobalRelative is a WGS84 position with altitude relative to home.
type LocationGlobalRelative struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
	Alt *float64 `json:"alt,omitempty"`

	LocalFrame  *LocationLocal  `json:"-"`
	GlobalFrame *LocationGlobal `json:"-"`
}

func (l LocationGlobalRelative) String() string {
	return fmt.Sprintf("LocationGlobalRelative:lat=%s,lon=%s,alt=%s", optFloat(l.Lat), optFloat(l.Lon), optFloat(l.Alt))
}

// LocationLocal is an offset in metres from the EKF origin.
type LocationLocal struct {
	North *float64 `json:"north,omitempty"`
	East  *float64 `json:"east,omitempty"`
	Down  *float64 `json:"down,omitempty"`
}

// DistanceHome returns the distance from the EKF origin in metres: 3D when
// Down is known, 2D otherwise. It reports false when North or East is unknown.
func (l LocationLocal) DistanceHome() (float64, bool) {
	if l.North == nil || l.East == nil {
		return 0, false
	}
	n, e := *l.North, *l.East
	if l.Down != nil {
		d := *l.Down
		return math.Sqrt(n*n + e*e + d*d), true
	}
	return math.Sqrt(n*n + e*e), true
}

func (l LocationLocal) String() string {
	return fmt.Sprintf("LocationLocal:north=%s,east=%s,down=%s", optFloat(l.North), optFloat(l.East), optFloat(l.Down))
}

// GPS fix type codes.
const (
	FixNone = 1
	Fix2D   = 2
	Fix3D   = 3
)

// GPSInfo is the GPS receiver state. Fields are nil when there is no lock.
type GPSInfo struct {
	EPH               *int `json:"eph,omitempty"` // horizontal dilution of precision
	EPV               *int `json:"epv,omitempty"` // vertical dilution of precision
	FixType           *int `json:"fix_type,omitempty"`
	SatellitesVisible *int `json:"satellites_visible,omitempty"`
}

// FixLabel describes FixType as "no fix", "2D", "3D" or "unknown".
func (g GPSInfo) FixLabel() string {
	if g.FixType == nil {
		return "unknown"
	}
	switch *g.FixType {
	case 0, FixNone:
		return "no fix"
	case Fix2D:
		return "2D"
	case Fix3D:
		return "3D"
	default:
		return "unknown"
	}
}

func (g GPSInfo) String() string {
	return fmt.Sprintf("GPSInfo:fix=%s,num_sat=%s", optInt(g.FixType), optInt(g.SatellitesVisible))
}
