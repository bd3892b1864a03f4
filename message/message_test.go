package message

import (
	"strings"
	"testing"

	"github.com/arloliu/go-elkm1/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeReport builds an inbound-looking raw frame for a report body.
func encodeReport(typeCode string, body string) string {
	return frame.Encode(typeCode, body).Raw()
}

func TestDecode_Generic(t *testing.T) {
	require := require.New(t)

	raw := encodeReport("XK", "123456")
	msg, err := Decode(raw)
	require.NoError(err)

	generic, ok := msg.(*GenericMessage)
	require.True(ok)
	require.Equal("XK", generic.TypeCode())
	require.Equal("12345600", generic.Frame().Body())
	require.Equal(raw, generic.Raw())
}

func TestDecode_ChecksumPolicy(t *testing.T) {
	require := require.New(t)

	// unregistered type with a bad checksum is rejected
	bad := encodeReport("XK", "123456")
	bad = bad[:len(bad)-2] + "ZZ"
	_, err := Decode(bad)
	require.ErrorIs(err, frame.ErrChecksumMismatch)

	// registered type with a bad checksum is trusted
	msg, err := Decode("0AZC002200FF")
	require.NoError(err)
	require.Equal(TypeZoneChange, msg.TypeCode())

	// strict decoding validates every type
	_, err = DecodeStrict("0AZC002200FF")
	require.ErrorIs(err, frame.ErrChecksumMismatch)

	msg, err = DecodeStrict("0AZC002200CE")
	require.NoError(err)
	require.IsType(&ZoneChangeUpdate{}, msg)
}

func TestDecode_TooShort(t *testing.T) {
	_, err := Decode("0A")
	require.ErrorIs(t, err, frame.ErrFrameTooShort)
}

func TestRegisteredTypeCodes(t *testing.T) {
	assert := assert.New(t)

	codes := RegisteredTypeCodes()
	assert.Len(codes, 17)
	assert.Contains(codes, TypeArmingStatus)
	assert.Contains(codes, TypeZonePartition)
	assert.True(IsRegistered("ZS"))
	assert.False(IsRegistered(TypeSystemTrouble))
	assert.False(IsRegistered("zs"))
}

func TestArmingStatusReport(t *testing.T) {
	require := require.New(t)

	msg, err := Decode("1EAS100000004000000030000000000E")
	require.NoError(err)

	report, ok := msg.(*ArmingStatusReport)
	require.True(ok)
	require.Len(report.Areas, MaxAreas)

	area := report.Areas[0]
	require.Equal(1, area.ID)
	require.Equal("Armed Away", area.ArmStatus.String())
	require.Equal("Armed Fully", area.ArmUpState.String())
	require.Equal("Fire", area.AlarmState.String())

	require.Equal(8, report.Areas[7].ID)
	require.Equal("Disarmed", report.Areas[7].ArmStatus.String())
	require.Equal("Not Ready To Arm", report.Areas[7].ArmUpState.String())
	require.Equal("No Alarm Active", report.Areas[7].AlarmState.String())
}

func TestArmingStatusReport_ShortBody(t *testing.T) {
	_, err := Decode(encodeReport("AS", "1000"))
	require.ErrorIs(t, err, ErrMalformedBody)
}

func TestEntryExitTimeData(t *testing.T) {
	require := require.New(t)

	msg, err := Decode(encodeReport("EE", "100300601"))
	require.NoError(err)

	ee, ok := msg.(*EntryExitTimeData)
	require.True(ok)
	require.Equal(1, ee.Area)
	require.Equal("Exit", ee.TimerType.String())
	require.Equal(30, ee.Timer1)
	require.Equal(60, ee.Timer2)
	require.Equal("Armed Away", ee.ArmStatus.String())
}

func TestKeypadAreasReport(t *testing.T) {
	require := require.New(t)

	msg, err := Decode(encodeReport("KA", "1100200000000003"))
	require.NoError(err)

	ka, ok := msg.(*KeypadAreasReport)
	require.True(ok)
	require.Len(ka.Keypads, MaxKeypads)
	require.Equal(KeypadArea{Keypad: 1, Area: 1}, ka.Keypads[0])
	require.Equal(KeypadArea{Keypad: 3, Area: 0}, ka.Keypads[2])
	require.Equal(KeypadArea{Keypad: 5, Area: 2}, ka.Keypads[4])
	require.Equal(KeypadArea{Keypad: 16, Area: 3}, ka.Keypads[15])
	require.Equal([]int{1, 2, 3}, ka.Areas)
}

func TestKeypadKeyChangeUpdate(t *testing.T) {
	require := require.New(t)

	msg, err := Decode(encodeReport("KC", "05110120001"))
	require.NoError(err)

	kc, ok := msg.(*KeypadKeyChangeUpdate)
	require.True(ok)
	require.Equal(5, kc.Keypad)
	require.Equal("*", kc.Key.String())
	require.Equal("Off", kc.Illumination[0].String())
	require.Equal("On", kc.Illumination[1].String())
	require.Equal("Blinking", kc.Illumination[2].String())
	require.True(kc.BypassRequired)
}

func TestOutputChangeUpdate(t *testing.T) {
	require := require.New(t)

	msg, err := Decode(encodeReport("CC", "0051"))
	require.NoError(err)
	cc := msg.(*OutputChangeUpdate)
	require.Equal(5, cc.Output)
	require.Equal("On", cc.State.String())

	msg, err = Decode(encodeReport("CC", "0060"))
	require.NoError(err)
	require.Equal(OutputOff, msg.(*OutputChangeUpdate).State)
}

func TestOutputStatusReport(t *testing.T) {
	require := require.New(t)

	body := "1" + strings.Repeat("0", MaxZones-2) + "1"
	msg, err := Decode(encodeReport("CS", body))
	require.NoError(err)

	report, ok := msg.(*OutputStatusReport)
	require.True(ok)
	require.Len(report.Outputs, MaxZones)
	require.Equal("On", report.Outputs[0].State.String())
	require.Equal("Off", report.Outputs[1].State.String())
	require.Equal("On", report.Outputs[207].State.String())
	for i, output := range report.Outputs {
		require.Equal(i+1, output.ID)
	}
}

func TestTaskChangeUpdate(t *testing.T) {
	msg, err := Decode(encodeReport("TC", "012"))
	require.NoError(t, err)
	require.Equal(t, 12, msg.(*TaskChangeUpdate).Task)
}

func TestTemperatureReport(t *testing.T) {
	require := require.New(t)

	body := strings.Repeat("070", TemperatureSensors) + strings.Repeat("130", TemperatureSensors-1) + "000"
	msg, err := Decode(encodeReport("LW", body))
	require.NoError(err)

	lw, ok := msg.(*TemperatureReport)
	require.True(ok)
	require.Len(lw.KeypadTemperatures, TemperatureSensors)
	require.Len(lw.ZoneTemperatures, TemperatureSensors)
	require.Equal(30, lw.KeypadTemperatures[0])
	require.Equal(30, lw.KeypadTemperatures[15])
	require.Equal(70, lw.ZoneTemperatures[0])
	require.Equal(-60, lw.ZoneTemperatures[15])
}

func TestThermostatReply(t *testing.T) {
	require := require.New(t)

	msg, err := Decode("13TR01200726875000000")
	require.NoError(err)

	tr, ok := msg.(*ThermostatReply)
	require.True(ok)
	require.Equal("1", tr.ID)
	require.Equal("Cool", tr.Mode.String())
	require.False(tr.Hold)
	require.Equal("Auto", tr.Fan.String())
	require.Equal(72, tr.Temperature)
	require.Equal(68, tr.HeatSetPoint)
	require.Equal(75, tr.CoolSetPoint)
	require.Equal("No Data", tr.Humidity)
}

func TestThermostatReply_InvalidID(t *testing.T) {
	require := require.New(t)

	msg, err := Decode(encodeReport("TR", "003117268754"))
	require.NoError(err)

	tr := msg.(*ThermostatReply)
	require.Equal("Invalid", tr.ID)
	require.Equal("Auto", tr.Mode.String())
	require.Equal("On", tr.Fan.String())
	require.Equal("4", tr.Humidity)
}

func TestTextStringDescriptionReport(t *testing.T) {
	require := require.New(t)

	msg, err := Decode("1BSD01101Front DoorKeypad0089")
	require.NoError(err)

	sd, ok := msg.(*TextStringDescriptionReport)
	require.True(ok)
	require.Equal("Area", sd.DescriptionType.String())
	require.Equal(DescriptionArea, sd.DescriptionType)
	require.Equal(101, sd.ID)
	require.Equal("Front DoorKeypad", sd.Description)

	msg, err = Decode(encodeReport("SD", "00005Garage          "))
	require.NoError(err)
	sd = msg.(*TextStringDescriptionReport)
	require.Equal(DescriptionZone, sd.DescriptionType)
	require.Equal(5, sd.ID)
	require.Equal("Garage", sd.Description)
}

func TestZoneBypassReport(t *testing.T) {
	msg, err := Decode(encodeReport("ZB", "0101"))
	require.NoError(t, err)

	zb := msg.(*ZoneBypassReport)
	assert.Equal(t, 10, zb.Zone)
	assert.True(t, zb.Bypassed)
}

func TestZoneVoltageReport(t *testing.T) {
	msg, err := Decode(encodeReport("ZV", "004072"))
	require.NoError(t, err)

	zv := msg.(*ZoneVoltageReport)
	assert.Equal(t, 4, zv.Zone)
	assert.InDelta(t, 7.2, zv.Voltage, 1e-9)

	_, err = Decode(encodeReport("ZV", "00X072"))
	require.ErrorIs(t, err, ErrMalformedBody)
}

func TestZoneChangeUpdate(t *testing.T) {
	require := require.New(t)

	msg, err := Decode("0AZC002200CE")
	require.NoError(err)

	zc, ok := msg.(*ZoneChangeUpdate)
	require.True(ok)
	require.Equal(2, zc.ID)
	require.Equal("EOL", zc.PhysicalStatus.String())
	require.Equal("Normal", zc.LogicalState.String())

	msg, err = Decode(encodeReport("ZC", "010B"))
	require.NoError(err)
	zc = msg.(*ZoneChangeUpdate)
	require.Equal(10, zc.ID)
	require.Equal("Short", zc.PhysicalStatus.String())
	require.Equal("Violated", zc.LogicalState.String())

	_, err = Decode(encodeReport("ZC", "010G"))
	require.ErrorIs(err, ErrMalformedBody)
}

func TestZoneStatusReport(t *testing.T) {
	require := require.New(t)

	body := "29" + strings.Repeat("0", MaxZones-3) + "F"
	msg, err := Decode(encodeReport("ZS", body))
	require.NoError(err)

	zs, ok := msg.(*ZoneStatusReport)
	require.True(ok)
	require.Len(zs.Zones, MaxZones)
	for i, zone := range zs.Zones {
		require.Equal(i+1, zone.ID)
	}

	require.Equal("EOL", zs.Zones[0].PhysicalStatus.String())
	require.Equal("Normal", zs.Zones[0].LogicalState.String())
	require.Equal("Open", zs.Zones[1].PhysicalStatus.String())
	require.Equal("Violated", zs.Zones[1].LogicalState.String())
	require.Equal("Unconfigured", zs.Zones[2].PhysicalStatus.String())
	require.Equal("Short", zs.Zones[207].PhysicalStatus.String())
	require.Equal("Bypassed", zs.Zones[207].LogicalState.String())
}

func TestZoneDefinitionReport(t *testing.T) {
	require := require.New(t)

	body := "13:" + strings.Repeat("0", MaxZones-3)
	msg, err := Decode(encodeReport("ZD", body))
	require.NoError(err)

	zd := msg.(*ZoneDefinitionReport)
	require.Len(zd.Zones, MaxZones)
	require.Equal("Burglar Entry/Exit 1", zd.Zones[0].Definition.String())
	require.Equal("Burglar Perimeter Instant", zd.Zones[1].Definition.String())
	require.Equal("Fire Alarm", zd.Zones[2].Definition.String())
	require.Equal("Disabled", zd.Zones[207].Definition.String())
	require.Equal(208, zd.Zones[207].ID)
}

func TestZonePartitionReport(t *testing.T) {
	require := require.New(t)

	body := "12" + strings.Repeat("1", MaxZones-3) + "8"
	msg, err := Decode(encodeReport("ZP", body))
	require.NoError(err)

	zp := msg.(*ZonePartitionReport)
	require.Len(zp.Zones, MaxZones)
	require.Equal(ZonePartition{ID: 1, Area: 1}, zp.Zones[0])
	require.Equal(ZonePartition{ID: 2, Area: 2}, zp.Zones[1])
	require.Equal(ZonePartition{ID: 208, Area: 8}, zp.Zones[207])
}

func TestLookupTables_Unknown(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Unknown ('Z')", ArmStatus('Z').String())
	assert.Equal("Unknown (99)", KeyCode(99).String())
	assert.Equal("Unknown (4)", PhysicalStatus(4).String())
	assert.Equal("Unknown (42)", DescriptionType(42).String())
	assert.Equal("Verify Fire", AlarmState('B').String())
	assert.Equal("Intercom Key", ZoneDefinition('T').String())
	assert.Equal("Emergency Heat", ThermostatMode('4').String())
	assert.Equal("Entry", TimerType('1').String())
}

func TestMaxDescriptionID(t *testing.T) {
	n, ok := MaxDescriptionID(DescriptionZone)
	assert.True(t, ok)
	assert.Equal(t, 208, n)

	n, ok = MaxDescriptionID(DescriptionArea)
	assert.True(t, ok)
	assert.Equal(t, 8, n)

	_, ok = MaxDescriptionID(DescriptionType(99))
	assert.False(t, ok)
}
