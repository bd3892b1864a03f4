package command

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/arloliu/go-elkm1/frame"
	"github.com/arloliu/go-elkm1/message"
)

// ErrValidation indicates that a command argument is missing or out of range.
var ErrValidation = errors.New("command: validation failed")

// Command codes of the supported operations.
const (
	CodeDisarm              = "a0"
	CodeActivateTask        = "tn"
	CodeOutputOn            = "cn"
	CodeOutputOff           = "cf"
	CodeToggleOutput        = "ct"
	CodeBypassZone          = "zb"
	CodeSpeakWord           = "sw"
	CodeTextDescription     = "sd"
	CodeZoneVoltage         = "zv"
	CodeSetThermostat       = "ts"
	CodeThermostatData      = "tr"
	CodeArmingStatus        = "as"
	CodeKeypadAreas         = "ka"
	CodeOutputStatus        = "cs"
	CodeSystemTroubleStatus = "ss"
	CodeZoneDefinition      = "zd"
	CodeZonePartition       = "zp"
	CodeZoneStatus          = "zs"
	CodeTemperatures        = "lw"
	CodeLogData             = "ld"
	CodeRealTimeClock       = "rr"
	CodeVersionNumber       = "vn"
)

// ArmMode selects how an area is armed.
type ArmMode int

const (
	ArmAway ArmMode = iota + 1
	ArmStay
	ArmStayInstant
	ArmNight
	ArmNightInstant
	ArmVacation
	ArmStepNextAway
	ArmStepNextStay
	ArmForceAway
)

// Argument limits.
const (
	MaxArea          = message.MaxAreas
	MaxZone          = message.MaxZones
	MaxOutput        = message.MaxZones
	MaxTask          = 32
	MaxThermostat    = 16
	MaxKeypadCode    = 999999
	MaxOutputSeconds = 65535
	MaxLogIndex      = 511
	// BypassAllZones as zone id bypasses every violated zone, 0 unbypasses every zone.
	BypassAllZones = 999
)

func pad(n int, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

func checkRange(name string, v, lower, upper int) error {
	if v < lower || v > upper {
		return fmt.Errorf("%w: %s %d out of range [%d, %d]", ErrValidation, name, v, lower, upper)
	}

	return nil
}

// Arm builds the command arming area with the given mode and keypad code.
func Arm(mode ArmMode, area int, keypadCode int) (*frame.Frame, error) {
	if err := checkRange("arm mode", int(mode), int(ArmAway), int(ArmForceAway)); err != nil {
		return nil, err
	}
	if err := checkArea(area); err != nil {
		return nil, err
	}
	if err := checkKeypadCode(keypadCode); err != nil {
		return nil, err
	}

	return frame.Encode("a"+strconv.Itoa(int(mode)), strconv.Itoa(area)+pad(keypadCode, 6)), nil
}

// Disarm builds the command disarming area with the given keypad code.
func Disarm(area int, keypadCode int) (*frame.Frame, error) {
	if err := checkArea(area); err != nil {
		return nil, err
	}
	if err := checkKeypadCode(keypadCode); err != nil {
		return nil, err
	}

	return frame.Encode(CodeDisarm, strconv.Itoa(area)+pad(keypadCode, 6)), nil
}

// ActivateTask builds the command activating a task.
func ActivateTask(task int) (*frame.Frame, error) {
	if err := checkRange("task", task, 1, MaxTask); err != nil {
		return nil, err
	}

	return frame.Encode(CodeActivateTask, pad(task, 3)), nil
}

// OutputOn builds the command turning an output on for seconds, 0 keeps it on indefinitely.
func OutputOn(output int, seconds int) (*frame.Frame, error) {
	if err := checkOutput(output); err != nil {
		return nil, err
	}
	if err := checkRange("seconds", seconds, 0, MaxOutputSeconds); err != nil {
		return nil, err
	}

	return frame.Encode(CodeOutputOn, pad(output, 3)+pad(seconds, 5)), nil
}

// OutputOff builds the command turning an output off.
func OutputOff(output int) (*frame.Frame, error) {
	if err := checkOutput(output); err != nil {
		return nil, err
	}

	return frame.Encode(CodeOutputOff, pad(output, 3)), nil
}

// ToggleOutput builds the command toggling an output.
func ToggleOutput(output int) (*frame.Frame, error) {
	if err := checkOutput(output); err != nil {
		return nil, err
	}

	return frame.Encode(CodeToggleOutput, pad(output, 3)), nil
}

// BypassZone builds the command toggling the bypass of a zone in area.
func BypassZone(zone int, area int, keypadCode int) (*frame.Frame, error) {
	if zone != BypassAllZones {
		if err := checkRange("zone", zone, 0, MaxZone); err != nil {
			return nil, err
		}
	}
	if err := checkArea(area); err != nil {
		return nil, err
	}
	if err := checkKeypadCode(keypadCode); err != nil {
		return nil, err
	}

	return frame.Encode(CodeBypassZone, pad(zone, 3)+strconv.Itoa(area)+pad(keypadCode, 6)), nil
}

// SpeakWord builds the command speaking the panel word at wordIndex.
func SpeakWord(wordIndex int) (*frame.Frame, error) {
	if err := checkRange("word index", wordIndex, 0, 999); err != nil {
		return nil, err
	}

	return frame.Encode(CodeSpeakWord, pad(wordIndex, 3)), nil
}

// SpeakWords builds one speak-word frame per word index, in order. An invalid index fails
// the whole message before any frame is built.
func SpeakWords(wordIndexes ...int) ([]*frame.Frame, error) {
	if len(wordIndexes) == 0 {
		return nil, fmt.Errorf("%w: no words", ErrValidation)
	}

	frames := make([]*frame.Frame, 0, len(wordIndexes))
	for _, idx := range wordIndexes {
		f, err := SpeakWord(idx)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}

	return frames, nil
}

// TextDescription builds the request for the description of id of the given type.
func TextDescription(descType message.DescriptionType, id int) (*frame.Frame, error) {
	maxID, ok := message.MaxDescriptionID(descType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown description type %d", ErrValidation, int(descType))
	}
	if err := checkRange("description id", id, 1, maxID); err != nil {
		return nil, err
	}

	return frame.Encode(CodeTextDescription, pad(int(descType), 2)+pad(id, 3)), nil
}

// ZoneVoltage builds the request for the voltage of a zone.
func ZoneVoltage(zone int) (*frame.Frame, error) {
	if err := checkRange("zone", zone, 1, MaxZone); err != nil {
		return nil, err
	}

	return frame.Encode(CodeZoneVoltage, pad(zone, 3)), nil
}

// ThermostatElement selects the thermostat setting changed by SetThermostat.
type ThermostatElement int

const (
	ThermostatMode ThermostatElement = iota
	ThermostatHold
	ThermostatFan
	ThermostatTemperature
	ThermostatCoolSetPoint
	ThermostatHeatSetPoint
)

// SetThermostat builds the command setting one element of a thermostat.
//
// Valid values: mode 0-4, hold and fan 0-1, set points 1-99.
func SetThermostat(thermostat int, value int, element ThermostatElement) (*frame.Frame, error) {
	if err := checkRange("thermostat", thermostat, 1, MaxThermostat); err != nil {
		return nil, err
	}
	if err := checkRange("thermostat element", int(element), int(ThermostatMode), int(ThermostatHeatSetPoint)); err != nil {
		return nil, err
	}

	var err error
	switch element {
	case ThermostatMode:
		err = checkRange("thermostat mode", value, 0, 4)
	case ThermostatHold, ThermostatFan:
		err = checkRange("thermostat value", value, 0, 1)
	case ThermostatCoolSetPoint, ThermostatHeatSetPoint:
		err = checkRange("set point", value, 1, 99)
	default:
		err = checkRange("thermostat value", value, 0, 99)
	}
	if err != nil {
		return nil, err
	}

	return frame.Encode(CodeSetThermostat, pad(thermostat, 2)+pad(value, 2)+strconv.Itoa(int(element))), nil
}

// ThermostatData builds the request for the state of a thermostat.
func ThermostatData(thermostat int) (*frame.Frame, error) {
	if err := checkRange("thermostat", thermostat, 1, MaxThermostat); err != nil {
		return nil, err
	}

	return frame.Encode(CodeThermostatData, pad(thermostat, 2)), nil
}

// LogData builds the request for one entry of the event log.
func LogData(index int) (*frame.Frame, error) {
	if err := checkRange("log index", index, 1, MaxLogIndex); err != nil {
		return nil, err
	}

	return frame.Encode(CodeLogData, pad(index, 3)), nil
}

// Status builds a bare request consisting of the command code alone, e.g. CodeZoneStatus.
func Status(code string) *frame.Frame {
	return frame.Encode(code, "")
}

func checkArea(area int) error {
	return checkRange("area", area, 1, MaxArea)
}

func checkOutput(output int) error {
	return checkRange("output", output, 1, MaxOutput)
}

func checkKeypadCode(code int) error {
	return checkRange("keypad code", code, 0, MaxKeypadCode)
}
