package message

import "github.com/arloliu/go-elkm1/frame"

// OutputChangeUpdate is the "CC" update sent when an output turns on or off.
type OutputChangeUpdate struct {
	Base
	Output int
	State  OutputState
}

func decodeOutputChange(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &OutputChangeUpdate{
		Base:   Base{frame: f},
		Output: r.number(0, 3),
		State:  OutputState(r.text(3, 4) == "1"),
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}

// Output is the state of one output.
type Output struct {
	ID    int
	State OutputState
}

// OutputStatusReport is the "CS" reply, the state of all outputs.
type OutputStatusReport struct {
	Base
	Outputs []Output
}

func decodeOutputStatus(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &OutputStatusReport{Base: Base{frame: f}, Outputs: make([]Output, MaxZones)}
	for i := range MaxZones {
		msg.Outputs[i] = Output{ID: i + 1, State: OutputState(r.char(i) != '0')}
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}

// TaskChangeUpdate is the "TC" update sent when a task is activated.
type TaskChangeUpdate struct {
	Base
	Task int
}

func decodeTaskChange(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &TaskChangeUpdate{Base: Base{frame: f}, Task: r.number(0, 3)}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}
