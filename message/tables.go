package message

import "fmt"

// ArmStatus is the per-area arm status code.
type ArmStatus byte

// ArmUpState is the per-area arm-up readiness code.
type ArmUpState byte

// AlarmState is the per-area alarm state code.
type AlarmState byte

// ZoneDefinition is the zone definition (zone type) code.
type ZoneDefinition byte

// PhysicalStatus is the physical state of a zone input, the low two bits of the zone status nibble.
type PhysicalStatus uint8

// LogicalState is the logical state of a zone, the high two bits of the zone status nibble.
type LogicalState uint8

// IlluminationState is the state of a keypad function key LED.
type IlluminationState byte

// KeyCode identifies a keypad key.
type KeyCode int

// ThermostatMode is the thermostat operating mode code.
type ThermostatMode byte

// TimerType tells whether an entry/exit report refers to the exit or the entry timer.
type TimerType byte

// DescriptionType selects the kind of object a text description belongs to.
type DescriptionType int

// OutputState is the on/off state of an output.
type OutputState bool

const (
	OutputOff OutputState = false
	OutputOn  OutputState = true
)

var armStatusNames = map[ArmStatus]string{
	'0': "Disarmed",
	'1': "Armed Away",
	'2': "Armed Stay",
	'3': "Armed Stay Instant",
	'4': "Armed to Night",
	'5': "Armed to Night Instant",
	'6': "Armed to Vacation",
}

var armUpStateNames = map[ArmUpState]string{
	'0': "Not Ready To Arm",
	'1': "Ready To Arm",
	'2': "Ready To Arm, Zone Violated (Force Arm)",
	'3': "Armed with Exit Timer working",
	'4': "Armed Fully",
	'5': "Force Armed with a force arm zone violated",
	'6': "Armed with a bypass",
}

var alarmStateNames = map[AlarmState]string{
	'0': "No Alarm Active",
	'1': "Entrance Delay is Active",
	'2': "Alarm Abort Delay Active",
	'3': "Fire",
	'4': "Medical",
	'5': "Police",
	'6': "Burglar",
	'7': "Aux 1",
	'8': "Aux 2",
	'9': "Aux 3",
	':': "Aux 4",
	';': "Carbon Monoxide",
	'<': "Emergency",
	'=': "Freeze",
	'>': "Gas",
	'?': "Heat",
	'@': "Water",
	'A': "Fire Supervisory",
	'B': "Verify Fire",
}

var zoneDefinitionNames = map[ZoneDefinition]string{
	'0': "Disabled",
	'1': "Burglar Entry/Exit 1",
	'2': "Burglar Entry/Exit 2",
	'3': "Burglar Perimeter Instant",
	'4': "Burglar Interior",
	'5': "Burglar Interior Follower",
	'6': "Burglar Interior Night",
	'7': "Burglar Interior Night Delay",
	'8': "Burglar 24 Hour",
	'9': "Burglar Box Tamper",
	':': "Fire Alarm",
	';': "Fire Verified",
	'<': "Fire Supervisory",
	'=': "Aux Alarm 1",
	'>': "Aux Alarm 2",
	'?': "Key Fob",
	'@': "Non Alarm",
	'A': "Carbon Monoxide",
	'B': "Emergency Alarm",
	'C': "Freeze Alarm",
	'D': "Gas Alarm",
	'E': "Heat Alarm",
	'F': "Medical Alarm",
	'G': "Police Alarm",
	'H': "Police No Indication",
	'I': "Water Alarm",
	'J': "Key Momentary Arm / Disarm",
	'K': "Key Momentary Arm Away",
	'L': "Key Momentary Arm Stay",
	'M': "Key Momentary Disarm",
	'N': "Key On/Off",
	'O': "Mute Audibles",
	'P': "Power Supervisory",
	'Q': "Temperature",
	'R': "Analog Zone",
	'S': "Phone Key",
	'T': "Intercom Key",
}

var physicalStatusNames = [...]string{"Unconfigured", "Open", "EOL", "Short"}

var logicalStateNames = [...]string{"Normal", "Trouble", "Violated", "Bypassed"}

var illuminationStateNames = map[IlluminationState]string{
	'0': "Off",
	'1': "On",
	'2': "Blinking",
}

var keyCodeNames = map[KeyCode]string{
	0:  "No Key",
	1:  "1",
	2:  "2",
	3:  "3",
	4:  "4",
	5:  "5",
	6:  "6",
	7:  "7",
	8:  "8",
	9:  "9",
	10: "0",
	11: "*",
	12: "#",
	13: "F1",
	14: "F2",
	15: "F3",
	16: "F4",
	17: "Stay",
	18: "Exit",
	19: "Chime",
	20: "Bypass",
	21: "Elk",
	22: "Down",
	23: "Up",
	24: "Right",
	25: "Left",
	26: "F6",
	27: "F5",
	28: "Data Key Entered",
}

var thermostatModeNames = map[ThermostatMode]string{
	'0': "Off",
	'1': "Heat",
	'2': "Cool",
	'3': "Auto",
	'4': "Emergency Heat",
}

var timerTypeNames = map[TimerType]string{
	'0': "Exit",
	'1': "Entry",
}

const (
	DescriptionZone DescriptionType = iota
	DescriptionArea
	DescriptionUser
	DescriptionKeypad
	DescriptionOutput
	DescriptionTask
	DescriptionTelephone
	DescriptionLight
	DescriptionAlarmDuration
	DescriptionCustomSetting
	DescriptionCounter
	DescriptionThermostat
	DescriptionFunctionKey1
	DescriptionFunctionKey2
	DescriptionFunctionKey3
	DescriptionFunctionKey4
	DescriptionFunctionKey5
	DescriptionFunctionKey6
	DescriptionAudioZone
	DescriptionAudioSource
)

var descriptionTypeNames = map[DescriptionType]string{
	DescriptionZone:          "Zone",
	DescriptionArea:          "Area",
	DescriptionUser:          "User",
	DescriptionKeypad:        "Keypad",
	DescriptionOutput:        "Output",
	DescriptionTask:          "Task",
	DescriptionTelephone:     "Telephone",
	DescriptionLight:         "Light",
	DescriptionAlarmDuration: "Alarm Duration",
	DescriptionCustomSetting: "Custom Setting",
	DescriptionCounter:       "Counter",
	DescriptionThermostat:    "Thermostat",
	DescriptionFunctionKey1:  "Function Key 1",
	DescriptionFunctionKey2:  "Function Key 2",
	DescriptionFunctionKey3:  "Function Key 3",
	DescriptionFunctionKey4:  "Function Key 4",
	DescriptionFunctionKey5:  "Function Key 5",
	DescriptionFunctionKey6:  "Function Key 6",
	DescriptionAudioZone:     "Audio Zone",
	DescriptionAudioSource:   "Audio Source",
}

// descriptionMaxRange bounds the description sweep per description type.
var descriptionMaxRange = map[DescriptionType]int{
	DescriptionZone:          208,
	DescriptionArea:          8,
	DescriptionUser:          199,
	DescriptionKeypad:        16,
	DescriptionOutput:        64,
	DescriptionTask:          32,
	DescriptionTelephone:     8,
	DescriptionLight:         256,
	DescriptionAlarmDuration: 12,
	DescriptionCustomSetting: 20,
	DescriptionCounter:       64,
	DescriptionThermostat:    16,
	DescriptionFunctionKey1:  16,
	DescriptionFunctionKey2:  16,
	DescriptionFunctionKey3:  16,
	DescriptionFunctionKey4:  16,
	DescriptionFunctionKey5:  16,
	DescriptionFunctionKey6:  16,
	DescriptionAudioZone:     18,
	DescriptionAudioSource:   12,
}

// MaxDescriptionID returns the maximum valid id for the description type.
func MaxDescriptionID(t DescriptionType) (int, bool) {
	n, ok := descriptionMaxRange[t]
	return n, ok
}

func unknownCode[T ~byte](c T) string {
	return fmt.Sprintf("Unknown (%q)", byte(c))
}

func (s ArmStatus) String() string {
	if name, ok := armStatusNames[s]; ok {
		return name
	}

	return unknownCode(s)
}

func (s ArmUpState) String() string {
	if name, ok := armUpStateNames[s]; ok {
		return name
	}

	return unknownCode(s)
}

func (s AlarmState) String() string {
	if name, ok := alarmStateNames[s]; ok {
		return name
	}

	return unknownCode(s)
}

func (d ZoneDefinition) String() string {
	if name, ok := zoneDefinitionNames[d]; ok {
		return name
	}

	return unknownCode(d)
}

func (s PhysicalStatus) String() string {
	if int(s) < len(physicalStatusNames) {
		return physicalStatusNames[s]
	}

	return fmt.Sprintf("Unknown (%d)", uint8(s))
}

func (s LogicalState) String() string {
	if int(s) < len(logicalStateNames) {
		return logicalStateNames[s]
	}

	return fmt.Sprintf("Unknown (%d)", uint8(s))
}

func (s IlluminationState) String() string {
	if name, ok := illuminationStateNames[s]; ok {
		return name
	}

	return unknownCode(s)
}

func (k KeyCode) String() string {
	if name, ok := keyCodeNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Unknown (%d)", int(k))
}

func (m ThermostatMode) String() string {
	if name, ok := thermostatModeNames[m]; ok {
		return name
	}

	return unknownCode(m)
}

func (t TimerType) String() string {
	if name, ok := timerTypeNames[t]; ok {
		return name
	}

	return unknownCode(t)
}

func (t DescriptionType) String() string {
	if name, ok := descriptionTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("Unknown (%d)", int(t))
}

func (s OutputState) String() string {
	if s {
		return "On"
	}

	return "Off"
}
