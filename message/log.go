package message

import (
	"fmt"
	"time"

	"github.com/arloliu/go-elkm1/frame"
)

// EventCategory classifies a log event code.
type EventCategory int

const (
	EventGeneral EventCategory = iota
	EventZoneStatus
	EventZoneBypass
	EventAlarmMemory
	EventOutputStatus
)

func (c EventCategory) String() string {
	switch c {
	case EventZoneStatus:
		return "zone status"
	case EventZoneBypass:
		return "zone bypass"
	case EventAlarmMemory:
		return "alarm memory"
	case EventOutputStatus:
		return "output status"
	default:
		return "general"
	}
}

// LogEvent is a classified log event code.
type LogEvent struct {
	Code     int
	Category EventCategory
	// Subject is the zone or output number for ranged events, 0 for general events.
	Subject     int
	Description string
}

type eventRange struct {
	base     int
	category EventCategory
	subject  string
	set      string
	clear    string
}

var eventRanges = []eventRange{
	{base: 4000, category: EventZoneStatus, subject: "Zone", set: "violated", clear: "normal"},
	{base: 5000, category: EventZoneBypass, subject: "Zone", set: "bypassed", clear: "unbypassed"},
	{base: 6000, category: EventAlarmMemory, subject: "Zone", set: "alarm memory set", clear: "alarm memory cleared"},
	{base: 7000, category: EventOutputStatus, subject: "Output", set: "on", clear: "off"},
}

// ClassifyEvent classifies a log event code.
//
// Codes 4001-4208, 5001-5208, 6001-6208 and 7001-7208 are per-zone or per-output events, the
// subject number is the code minus the range base. Other codes are looked up in the event table.
//
// The set/clear wording of ranged events compares the whole event code against 1, so ranged
// events always carry the clear wording.
func ClassifyEvent(code int) LogEvent {
	for _, er := range eventRanges {
		if code > er.base && code <= er.base+MaxZones {
			state := er.clear
			if code == 1 {
				state = er.set
			}

			return LogEvent{
				Code:        code,
				Category:    er.category,
				Subject:     code - er.base,
				Description: fmt.Sprintf("%s %d %s", er.subject, code-er.base, state),
			}
		}
	}

	return LogEvent{Code: code, Category: EventGeneral, Description: EventDescription(code)}
}

// EventDescription returns the description of a general event code.
func EventDescription(code int) string {
	if desc, ok := eventDescriptions[code]; ok {
		return desc
	}

	return fmt.Sprintf("Unknown Event (%d)", code)
}

// LogDataUpdate is the "LD" report of one entry of the panel event log.
type LogDataUpdate struct {
	Base
	Event    LogEvent
	ID       int
	Area     int
	Hour     int
	Minute   int
	Month    time.Month
	Day      int
	LogIndex int
	Weekday  time.Weekday
	// Year is the two-digit year as reported by the panel.
	Year int
}

// Time returns the time of the log entry in loc.
func (m *LogDataUpdate) Time(loc *time.Location) time.Time {
	return time.Date(2000+m.Year, m.Month, m.Day, m.Hour, m.Minute, 0, 0, loc)
}

func decodeLogData(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &LogDataUpdate{
		Base:     Base{frame: f},
		Event:    ClassifyEvent(r.number(0, 4)),
		ID:       r.number(4, 7),
		Area:     r.number(7, 8),
		Hour:     r.number(8, 10),
		Minute:   r.number(10, 12),
		Month:    time.Month(r.number(12, 14)),
		Day:      r.number(14, 16),
		LogIndex: r.number(16, 19),
		// the panel numbers weekdays from 1 (Sunday)
		Weekday: time.Weekday(r.number(19, 20) - 1),
		Year:    r.number(20, 22),
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}

// eventDescriptions covers the alarm, trouble and restore events 1000-1147 only. Other general
// codes (arming, user code and automation events) are reported as "Unknown Event (n)" with the
// raw code kept in LogEvent.Code.
var eventDescriptions = map[int]string{
	1000: "No Event",
	1001: "Fire Alarm",
	1002: "Fire Supervisory Alarm",
	1003: "Burglar Alarm, Any Area",
	1004: "Medical Alarm, Any Area",
	1005: "Police Alarm, Any Area",
	1006: "Aux1 24 Hr Alarm, Any Area",
	1007: "Aux2 24 Hr Alarm, Any Area",
	1008: "Carbon Monoxide Alarm, Any Area",
	1009: "Emergency Alarm, Any Area",
	1010: "Freeze Alarm, Any Area",
	1011: "Gas Alarm, Any Area",
	1012: "Heat Alarm, Any Area",
	1013: "Water Alarm, Any Area",
	1014: "Alarm, Any Area",
	1111: "Code Lockout, Any Keypad",
	1112: "Fire Trouble, Any Zone",
	1113: "Burglar Trouble, Any Zone",
	1114: "Fail To Communicate Trouble",
	1115: "RF Sensor Low Battery Trouble",
	1116: "Lost ANC Module Trouble",
	1117: "Lost Keypad Trouble",
	1118: "Lost Input Expander Trouble",
	1119: "Lost Output Expander Trouble",
	1120: "EEPROM Memory Error Trouble",
	1121: "FLASH Memory Error Trouble",
	1122: "AC Failure Trouble",
	1123: "Control Low Battery Trouble",
	1124: "Control Over Current Trouble",
	1125: "Expansion Module Trouble",
	1126: "Output 2 Supervisory Trouble",
	1127: "Telephone Line Fault Trouble",
	1128: "Restore Fire Zone",
	1129: "Restore Fire Supervisory Zone",
	1130: "Restore Burglar Zone",
	1131: "Restore Medical Zone",
	1132: "Restore Police Zone",
	1133: "Restore Aux1 24 Hr Zone",
	1134: "Restore Aux2 24 Hr Zone",
	1135: "Restore CO Zone",
	1136: "Restore Emergency Zone",
	1137: "Restore Freeze Zone",
	1138: "Restore Gas Zone",
	1139: "Restore Heat Zone",
	1140: "Restore Water Zone",
	1141: "Communication Fail Restore",
	1142: "AC Fail Restore",
	1143: "Low Battery Restore",
	1144: "Control Over Current Restore",
	1145: "Expansion Module Restore",
	1146: "Output 2 Restore",
	1147: "Telephone Line Restore",
}
