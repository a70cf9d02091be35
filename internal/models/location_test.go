package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationLocal_DistanceHome(t *testing.T) {
	tests := []struct {
		name   string
		loc    LocationLocal
		want   float64
		wantOK bool
	}{
		{"2d", LocationLocal{North: Ptr(3.0), East: Ptr(4.0)}, 5, true},
		{"3d zero down", LocationLocal{North: Ptr(3.0), East: Ptr(4.0), Down: Ptr(0.0)}, 5, true},
		{"3d", LocationLocal{North: Ptr(2.0), East: Ptr(3.0), Down: Ptr(6.0)}, 7, true},
		{"no north", LocationLocal{East: Ptr(4.0), Down: Ptr(0.0)}, 0, false},
		{"no east", LocationLocal{North: Ptr(4.0)}, 0, false},
		{"down only", LocationLocal{Down: Ptr(10.0)}, 0, false},
		{"empty", LocationLocal{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.loc.DistanceHome()
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestLocation_String(t *testing.T) {
	g := LocationGlobal{Lat: Ptr(-34.364114), Lon: Ptr(149.166022), Alt: Ptr(30.0)}
	assert.Equal(t, "LocationGlobal:lat=-34.364114,lon=149.166022,alt=30.0", g.String())

	r := LocationGlobalRelative{Lat: Ptr(-34.364114), Lon: Ptr(149.166022)}
	assert.Equal(t, "LocationGlobalRelative:lat=-34.364114,lon=149.166022,alt=None", r.String())

	l := LocationLocal{North: Ptr(1.5), East: Ptr(-2.0)}
	assert.Equal(t, "LocationLocal:north=1.5,east=-2.0,down=None", l.String())
}

func TestGPSInfo(t *testing.T) {
	g := GPSInfo{EPH: Ptr(121), EPV: Ptr(65535), FixType: Ptr(3), SatellitesVisible: Ptr(10)}
	assert.Equal(t, "GPSInfo:fix=3,num_sat=10", g.String())
	assert.Equal(t, "3D", g.FixLabel())

	assert.Equal(t, "no fix", GPSInfo{FixType: Ptr(0)}.FixLabel())
	assert.Equal(t, "no fix", GPSInfo{FixType: Ptr(1)}.FixLabel())
	assert.Equal(t, "2D", GPSInfo{FixType: Ptr(2)}.FixLabel())
	assert.Equal(t, "unknown", GPSInfo{FixType: Ptr(6)}.FixLabel())
	assert.Equal(t, "unknown", GPSInfo{}.FixLabel())
	assert.Equal(t, "GPSInfo:fix=None,num_sat=None", GPSInfo{}.String())
}

func TestAttitudeAndWind_String(t *testing.T) {
	a := Attitude{Pitch: 0.1, Yaw: -1.5, Roll: 0}
	assert.Equal(t, "Attitude:pitch=0.1,yaw=-1.5,roll=0.0", a.String())

	w := Wind{Direction: 270, Speed: 4.5, SpeedZ: -0.25}
	assert.Equal(t, "Wind: wind direction: 270.0, wind speed: 4.5, wind speed z: -0.25", w.String())
}
