package message

import "github.com/arloliu/go-elkm1/frame"

// ZoneBypassReport is the "ZB" reply to a bypass request.
type ZoneBypassReport struct {
	Base
	Zone     int
	Bypassed bool
}

func decodeZoneBypass(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &ZoneBypassReport{
		Base:     Base{frame: f},
		Zone:     r.number(0, 3),
		Bypassed: r.text(3, 4) == "1",
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}

// ZoneDefinitionEntry is the definition code of one zone.
type ZoneDefinitionEntry struct {
	ID         int
	Definition ZoneDefinition
}

// ZoneDefinitionReport is the "ZD" reply, the definition of all zones.
type ZoneDefinitionReport struct {
	Base
	Zones []ZoneDefinitionEntry
}

func decodeZoneDefinition(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &ZoneDefinitionReport{Base: Base{frame: f}, Zones: make([]ZoneDefinitionEntry, MaxZones)}
	for i := range MaxZones {
		msg.Zones[i] = ZoneDefinitionEntry{ID: i + 1, Definition: ZoneDefinition(r.char(i))}
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}

// ZoneVoltageReport is the "ZV" reply, the measured voltage of one zone.
type ZoneVoltageReport struct {
	Base
	Zone    int
	Voltage float64
}

func decodeZoneVoltage(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &ZoneVoltageReport{
		Base:    Base{frame: f},
		Zone:    r.number(0, 3),
		Voltage: float64(r.number(3, 6)) / 10,
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}

// ZoneStatus is the decoded status nibble of one zone.
type ZoneStatus struct {
	ID             int
	PhysicalStatus PhysicalStatus
	LogicalState   LogicalState
}

func splitZoneStatus(id int, nibble uint8) ZoneStatus {
	return ZoneStatus{
		ID:             id,
		PhysicalStatus: PhysicalStatus(nibble & 0x03),
		LogicalState:   LogicalState(nibble >> 2),
	}
}

// ZoneChangeUpdate is the "ZC" update sent when a zone changes state.
type ZoneChangeUpdate struct {
	Base
	ZoneStatus
}

func decodeZoneChange(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	id := r.number(0, 3)
	status := r.nibble(3)
	if r.err != nil {
		return nil, r.err
	}

	return &ZoneChangeUpdate{Base: Base{frame: f}, ZoneStatus: splitZoneStatus(id, status)}, nil
}

// ZoneStatusReport is the "ZS" reply, the status of all zones.
type ZoneStatusReport struct {
	Base
	Zones []ZoneStatus
}

func decodeZoneStatus(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &ZoneStatusReport{Base: Base{frame: f}, Zones: make([]ZoneStatus, MaxZones)}
	for i := range MaxZones {
		msg.Zones[i] = splitZoneStatus(i+1, r.nibble(i))
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}

// ZonePartition is the area a zone belongs to.
type ZonePartition struct {
	ID   int
	Area int
}

// ZonePartitionReport is the "ZP" reply, the area of every zone.
type ZonePartitionReport struct {
	Base
	Zones []ZonePartition
}

func decodeZonePartition(f *frame.Frame) (Message, error) {
	r := newBodyReader(f.TypeCode(), f.Body())
	msg := &ZonePartitionReport{Base: Base{frame: f}, Zones: make([]ZonePartition, MaxZones)}
	for i := range MaxZones {
		msg.Zones[i] = ZonePartition{ID: i + 1, Area: r.number(i, i+1)}
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}
