package message

import (
	"sort"

	"github.com/arloliu/go-elkm1/frame"
)

// Type codes of the messages with a dedicated decoder.
const (
	TypeArmingStatus    = "AS"
	TypeEntryExitTime   = "EE"
	TypeKeypadAreas     = "KA"
	TypeKeypadKeyChange = "KC"
	TypeLogData         = "LD"
	TypeOutputChange    = "CC"
	TypeOutputStatus    = "CS"
	TypeTemperature     = "LW"
	TypeThermostat      = "TR"
	TypeTextDescription = "SD"
	TypeTaskChange      = "TC"
	TypeZoneBypass      = "ZB"
	TypeZoneDefinition  = "ZD"
	TypeZoneVoltage     = "ZV"
	TypeZoneChange      = "ZC"
	TypeZoneStatus      = "ZS"
	TypeZonePartition   = "ZP"

	// Replies without a dedicated decoder, delivered as *GenericMessage.
	TypeSystemTrouble = "SS"
	TypeRealTimeClock = "RR"
	TypeVersionNumber = "VN"
)

// MaxZones is the number of zones, outputs and per-zone entries reported by bulk status messages.
const MaxZones = 208

// Message is a decoded frame. The concrete type is selected by TypeCode.
type Message interface {
	// Frame returns the frame the message was decoded from.
	Frame() *frame.Frame
	// TypeCode returns the two-character type code of the message.
	TypeCode() string
}

// Base holds the frame fields shared by every message variant.
type Base struct {
	frame *frame.Frame
}

// Frame returns the underlying frame.
func (b *Base) Frame() *frame.Frame { return b.frame }

// TypeCode returns the two-character type code.
func (b *Base) TypeCode() string { return b.frame.TypeCode() }

// Raw returns the raw frame string.
func (b *Base) Raw() string { return b.frame.Raw() }

// GenericMessage is returned for type codes without a dedicated decoder.
type GenericMessage struct {
	Base
}

// DecodeFunc decodes the body of a frame into a typed message.
type DecodeFunc func(f *frame.Frame) (Message, error)

var registry = map[string]DecodeFunc{
	TypeArmingStatus:    decodeArmingStatus,
	TypeEntryExitTime:   decodeEntryExitTime,
	TypeKeypadAreas:     decodeKeypadAreas,
	TypeKeypadKeyChange: decodeKeypadKeyChange,
	TypeLogData:         decodeLogData,
	TypeOutputChange:    decodeOutputChange,
	TypeOutputStatus:    decodeOutputStatus,
	TypeTemperature:     decodeTemperature,
	TypeThermostat:      decodeThermostat,
	TypeTextDescription: decodeTextDescription,
	TypeTaskChange:      decodeTaskChange,
	TypeZoneBypass:      decodeZoneBypass,
	TypeZoneDefinition:  decodeZoneDefinition,
	TypeZoneVoltage:     decodeZoneVoltage,
	TypeZoneChange:      decodeZoneChange,
	TypeZoneStatus:      decodeZoneStatus,
	TypeZonePartition:   decodeZonePartition,
}

// IsRegistered reports whether typeCode has a dedicated decoder.
func IsRegistered(typeCode string) bool {
	_, ok := registry[typeCode]
	return ok
}

// RegisteredTypeCodes returns the sorted list of type codes with a dedicated decoder.
func RegisteredTypeCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	return codes
}

// Decode decodes a raw frame into a message.
//
// Frames of unregistered type codes are checksum-validated and returned as *GenericMessage.
// Registered type codes are decoded without checksum validation.
func Decode(raw string) (Message, error) {
	return decode(raw, false)
}

// DecodeStrict is like Decode but validates the checksum of every frame.
func DecodeStrict(raw string) (Message, error) {
	return decode(raw, true)
}

func decode(raw string, strict bool) (Message, error) {
	f, err := frame.Decode(raw)
	if err != nil {
		return nil, err
	}

	decodeFunc, ok := registry[f.TypeCode()]
	if !ok || strict {
		if err := f.Verify(); err != nil {
			return nil, err
		}
	}

	if !ok {
		return &GenericMessage{Base: Base{frame: f}}, nil
	}

	return decodeFunc(f)
}
