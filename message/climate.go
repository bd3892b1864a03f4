package message

import (
	"strconv"

	"github.com/arloliu/go-elkm1/frame"
)

const (
	// TemperatureSensors is the number of keypad and of zone temperature readings in a "LW" reply.
	TemperatureSensors = 16

	keypadTemperatureOffset = 40
	zoneTemperatureOffset   = 60
)

// TemperatureReport is the "LW" reply, the temperatures of all keypads and temperature zones.
type TemperatureReport struct {
	Base
	KeypadTemperatures []int
	ZoneTemperatures   []int
}

func decodeTemperature(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &TemperatureReport{
		Base:               Base{frame: f},
		KeypadTemperatures: make([]int, TemperatureSensors),
		ZoneTemperatures:   make([]int, TemperatureSensors),
	}
	for i := range TemperatureSensors {
		pos := i * 3
		msg.KeypadTemperatures[i] = r.number(pos, pos+3) - keypadTemperatureOffset
	}
	for i := range TemperatureSensors {
		pos := TemperatureSensors*3 + i*3
		msg.ZoneTemperatures[i] = r.number(pos, pos+3) - zoneTemperatureOffset
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}

// FanMode is the thermostat fan mode code.
type FanMode byte

func (m FanMode) String() string {
	if m == '0' {
		return "Auto"
	}

	return "On"
}

// ThermostatReply is the "TR" reply with the state of one thermostat.
type ThermostatReply struct {
	Base
	// ID is the thermostat number, or "Invalid" when the panel reports thermostat 0.
	ID   string
	Mode ThermostatMode
	// Hold is true only when the hold character is missing from the body.
	Hold         bool
	Fan          FanMode
	Temperature  int
	HeatSetPoint int
	CoolSetPoint int
	// Humidity is the literal humidity reading, or "No Data" when the panel reports 0.
	Humidity string
}

func decodeThermostat(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())

	id := "Invalid"
	if n := r.number(0, 2); n != 0 {
		id = strconv.Itoa(n)
	}

	humidity := r.text(11, 12)
	if humidity == "0" {
		humidity = "No Data"
	}

	msg := &ThermostatReply{
		Base:         Base{frame: f},
		ID:           id,
		Mode:         ThermostatMode(r.char(2)),
		Hold:         r.text(3, 4) == "",
		Fan:          FanMode(r.char(4)),
		Temperature:  r.number(5, 7),
		HeatSetPoint: r.number(7, 9),
		CoolSetPoint: r.number(9, 11),
		Humidity:     humidity,
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}
