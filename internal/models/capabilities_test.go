package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeCapabilities_SingleBit(t *testing.T) {
	want := []string{
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

	for bit, name := range want {
		t.Run(name, func(t *testing.T) {
			c := DecodeCapabilities(1 << bit)
			assert.Equal(t, []string{name}, c.Enabled())
			assert.Equal(t, 1, countFlags(c))
			assert.True(t, c.Has(Capability(bit)))
			assert.Equal(t, name, Capability(bit).String())
		})
	}
}

func TestDecodeCapabilities_FieldMapping(t *testing.T) {
	assert.True(t, DecodeCapabilities(1<<0).MissionFloat)
	assert.True(t, DecodeCapabilities(1<<1).ParamFloat)
	assert.True(t, DecodeCapabilities(1<<2).MissionInt)
	assert.True(t, DecodeCapabilities(1<<3).CommandInt)
	assert.True(t, DecodeCapabilities(1<<4).ParamUnion)
	assert.True(t, DecodeCapabilities(1<<5).FTP)
	assert.True(t, DecodeCapabilities(1<<6).SetAttitudeTarget)
	assert.True(t, DecodeCapabilities(1<<7).SetAttitudeTargetLocalNED)
	assert.True(t, DecodeCapabilities(1<<8).SetAltitudeTargetGlobalInt)
	assert.True(t, DecodeCapabilities(1<<9).Terrain)
	assert.True(t, DecodeCapabilities(1<<10).SetActuatorTarget)
	assert.True(t, DecodeCapabilities(1<<11).FlightTermination)
	assert.True(t, DecodeCapabilities(1<<12).CompassCalibration)
}

func TestDecodeCapabilities_HighBitsIgnored(t *testing.T) {
	for bit := 13; bit < 64; bit++ {
		c := DecodeCapabilities(1 << uint(bit))
		assert.Equal(t, 0, countFlags(c), "bit %d", bit)
		assert.Empty(t, c.Enabled())
	}
	assert.False(t, DecodeCapabilities(^uint64(0)).Has(Capability(13)))
	assert.Equal(t, "unknown", Capability(13).String())
}

func TestDecodeCapabilities_Zero(t *testing.T) {
	c := DecodeCapabilities(0)
	assert.Equal(t, 0, countFlags(c))
	assert.Nil(t, c.Enabled())
}

func TestDecodeCapabilities_AllDefined(t *testing.T) {
	c := DecodeCapabilities(0x1FFF)
	assert.Equal(t, 13, countFlags(c))
	assert.Len(t, c.Enabled(), 13)
}

func countFlags(c Capabilities) int {
	n := 0
	for _, f := range []bool{
		c.MissionFloat, c.ParamFloat, c.MissionInt, c.CommandInt, c.ParamUnion,
		c.FTP, c.SetAttitudeTarget, c.SetAttitudeTargetLocalNED,
		c.SetAltitudeTargetGlobalInt, c.Terrain, c.SetActuatorTarget,
		c.FlightTermination, c.CompassCalibration,
	} {
		if f {
			n++
		}
	}
	return n
}
