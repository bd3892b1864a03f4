package message

import (
	"sort"

	"github.com/arloliu/go-elkm1/frame"
)

const (
	// MaxAreas is the number of areas reported by the arming status message.
	MaxAreas = 8
	// MaxKeypads is the number of keypads reported by the keypad areas message.
	MaxKeypads = 16
)

// AreaStatus is the arming state of one area.
type AreaStatus struct {
	ID         int
	ArmStatus  ArmStatus
	ArmUpState ArmUpState
	AlarmState AlarmState
}

// ArmingStatusReport is the "AS" reply, the arming state of all areas.
type ArmingStatusReport struct {
	Base
	Areas []AreaStatus
}

func decodeArmingStatus(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &ArmingStatusReport{Base: Base{frame: f}, Areas: make([]AreaStatus, MaxAreas)}
	for i := range MaxAreas {
		msg.Areas[i] = AreaStatus{
			ID:         i + 1,
			ArmStatus:  ArmStatus(r.char(i)),
			ArmUpState: ArmUpState(r.char(MaxAreas + i)),
			AlarmState: AlarmState(r.char(2*MaxAreas + i)),
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}

// EntryExitTimeData is the "EE" update sent while an entry or exit timer runs.
type EntryExitTimeData struct {
	Base
	Area      int
	TimerType TimerType
	Timer1    int
	Timer2    int
	ArmStatus ArmStatus
}

func decodeEntryExitTime(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &EntryExitTimeData{
		Base:      Base{frame: f},
		Area:      r.number(0, 1),
		TimerType: TimerType(r.char(1)),
		Timer1:    r.number(2, 5),
		Timer2:    r.number(5, 8),
		ArmStatus: ArmStatus(r.char(8)),
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}

// KeypadArea is the area assignment of one keypad, Area 0 means unassigned.
type KeypadArea struct {
	Keypad int
	Area   int
}

// KeypadAreasReport is the "KA" reply, the area assignment of every keypad.
type KeypadAreasReport struct {
	Base
	Keypads []KeypadArea
	// Areas is the sorted set of distinct assigned areas.
	Areas []int
}

func decodeKeypadAreas(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &KeypadAreasReport{Base: Base{frame: f}, Keypads: make([]KeypadArea, MaxKeypads)}

	seen := make(map[int]struct{}, MaxAreas)
	for i := range MaxKeypads {
		area := r.number(i, i+1)
		msg.Keypads[i] = KeypadArea{Keypad: i + 1, Area: area}
		if area == 0 {
			continue
		}
		if _, ok := seen[area]; !ok {
			seen[area] = struct{}{}
			msg.Areas = append(msg.Areas, area)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	sort.Ints(msg.Areas)

	return msg, nil
}

// FunctionKeyCount is the number of illuminated function keys on a keypad.
const FunctionKeyCount = 6

// KeypadKeyChangeUpdate is the "KC" update sent when a keypad key is pressed.
type KeypadKeyChangeUpdate struct {
	Base
	Keypad int
	Key    KeyCode
	// Illumination holds the LED state of function keys F1..F6.
	Illumination   [FunctionKeyCount]IlluminationState
	BypassRequired bool
}

func decodeKeypadKeyChange(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &KeypadKeyChangeUpdate{
		Base:   Base{frame: f},
		Keypad: r.number(0, 2),
		Key:    KeyCode(r.number(2, 4)),
	}
	for i := range FunctionKeyCount {
		msg.Illumination[i] = IlluminationState(r.char(4 + i))
	}
	msg.BypassRequired = r.text(10, 11) == "1"
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}
