package m1xep

import (
	"context"

	"github.com/arloliu/go-elkm1/command"
	"github.com/arloliu/go-elkm1/frame"
	"github.com/arloliu/go-elkm1/message"
)

// ArmArea arms area in the given mode with a user keypad code.
func (c *Connection) ArmArea(ctx context.Context, mode command.ArmMode, area int, keypadCode int) error {
	return c.sendBuilt(ctx)(command.Arm(mode, area, keypadCode))
}

// DisarmArea disarms area with a user keypad code.
func (c *Connection) DisarmArea(ctx context.Context, area int, keypadCode int) error {
	return c.sendBuilt(ctx)(command.Disarm(area, keypadCode))
}

// ActivateTask activates an automation task.
func (c *Connection) ActivateTask(ctx context.Context, task int) error {
	return c.sendBuilt(ctx)(command.ActivateTask(task))
}

// OutputOn turns output on, for seconds seconds or indefinitely when seconds is 0.
func (c *Connection) OutputOn(ctx context.Context, output int, seconds int) error {
	return c.sendBuilt(ctx)(command.OutputOn(output, seconds))
}

// OutputOff turns output off.
func (c *Connection) OutputOff(ctx context.Context, output int) error {
	return c.sendBuilt(ctx)(command.OutputOff(output))
}

// ToggleOutput toggles output.
func (c *Connection) ToggleOutput(ctx context.Context, output int) error {
	return c.sendBuilt(ctx)(command.ToggleOutput(output))
}

// SpeakWord speaks the panel word at wordIndex.
func (c *Connection) SpeakWord(ctx context.Context, wordIndex int) error {
	return c.sendBuilt(ctx)(command.SpeakWord(wordIndex))
}

// SpeakWords speaks the panel words at wordIndexes in order. Nothing is sent when an index is
// invalid.
func (c *Connection) SpeakWords(ctx context.Context, wordIndexes ...int) error {
	frames, err := command.SpeakWords(wordIndexes...)
	if err != nil {
		return err
	}

	return c.SendAll(ctx, frames)
}

// BypassZone bypasses zone in area and returns the bypass reply.
func (c *Connection) BypassZone(ctx context.Context, zone int, area int, keypadCode int) (*message.ZoneBypassReport, error) {
	f, err := command.BypassZone(zone, area, keypadCode)
	if err != nil {
		return nil, err
	}

	return request[*message.ZoneBypassReport](ctx, c, message.TypeZoneBypass, f, 0)
}

// SetThermostat changes one element of a thermostat and returns the updated thermostat state.
func (c *Connection) SetThermostat(ctx context.Context, thermostat int, value int, element command.ThermostatElement) (*message.ThermostatReply, error) {
	f, err := command.SetThermostat(thermostat, value, element)
	if err != nil {
		return nil, err
	}

	return request[*message.ThermostatReply](ctx, c, message.TypeThermostat, f, 0)
}

// RequestThermostat returns the state of a thermostat.
func (c *Connection) RequestThermostat(ctx context.Context, thermostat int) (*message.ThermostatReply, error) {
	f, err := command.ThermostatData(thermostat)
	if err != nil {
		return nil, err
	}

	return request[*message.ThermostatReply](ctx, c, message.TypeThermostat, f, 0)
}

// RequestLogData returns one entry of the event log.
func (c *Connection) RequestLogData(ctx context.Context, index int) (*message.LogDataUpdate, error) {
	f, err := command.LogData(index)
	if err != nil {
		return nil, err
	}

	return request[*message.LogDataUpdate](ctx, c, message.TypeLogData, f, 0)
}

// RequestZoneVoltage returns the voltage of a zone.
func (c *Connection) RequestZoneVoltage(ctx context.Context, zone int) (*message.ZoneVoltageReport, error) {
	f, err := command.ZoneVoltage(zone)
	if err != nil {
		return nil, err
	}

	return request[*message.ZoneVoltageReport](ctx, c, message.TypeZoneVoltage, f, 0)
}

// RequestTextDescription returns the description of id, or of the next configured object of
// the same type when id has none.
func (c *Connection) RequestTextDescription(ctx context.Context, descType message.DescriptionType, id int) (*message.TextStringDescriptionReport, error) {
	f, err := command.TextDescription(descType, id)
	if err != nil {
		return nil, err
	}

	return request[*message.TextStringDescriptionReport](ctx, c, message.TypeTextDescription, f, c.cfg.DescriptionTimeout())
}

// RequestAllDescriptions returns the descriptions of every configured object of descType.
func (c *Connection) RequestAllDescriptions(ctx context.Context, descType message.DescriptionType) ([]*message.TextStringDescriptionReport, error) {
	return c.correlator.RequestAllDescriptions(ctx, descType)
}

// RequestArmingStatus returns the arming status of all areas.
func (c *Connection) RequestArmingStatus(ctx context.Context) (*message.ArmingStatusReport, error) {
	return request[*message.ArmingStatusReport](ctx, c, message.TypeArmingStatus, command.Status(command.CodeArmingStatus), 0)
}

// RequestKeypadAreas returns the area assignment of all keypads.
func (c *Connection) RequestKeypadAreas(ctx context.Context) (*message.KeypadAreasReport, error) {
	return request[*message.KeypadAreasReport](ctx, c, message.TypeKeypadAreas, command.Status(command.CodeKeypadAreas), 0)
}

// RequestOutputStatus returns the state of all outputs.
func (c *Connection) RequestOutputStatus(ctx context.Context) (*message.OutputStatusReport, error) {
	return request[*message.OutputStatusReport](ctx, c, message.TypeOutputStatus, command.Status(command.CodeOutputStatus), 0)
}

// RequestZoneDefinitions returns the definition of all zones.
func (c *Connection) RequestZoneDefinitions(ctx context.Context) (*message.ZoneDefinitionReport, error) {
	return request[*message.ZoneDefinitionReport](ctx, c, message.TypeZoneDefinition, command.Status(command.CodeZoneDefinition), 0)
}

// RequestZonePartitions returns the area of all zones.
func (c *Connection) RequestZonePartitions(ctx context.Context) (*message.ZonePartitionReport, error) {
	return request[*message.ZonePartitionReport](ctx, c, message.TypeZonePartition, command.Status(command.CodeZonePartition), 0)
}

// RequestZoneStatus returns the status of all zones.
func (c *Connection) RequestZoneStatus(ctx context.Context) (*message.ZoneStatusReport, error) {
	return request[*message.ZoneStatusReport](ctx, c, message.TypeZoneStatus, command.Status(command.CodeZoneStatus), 0)
}

// RequestTemperatures returns the keypad and zone temperatures.
func (c *Connection) RequestTemperatures(ctx context.Context) (*message.TemperatureReport, error) {
	return request[*message.TemperatureReport](ctx, c, message.TypeTemperature, command.Status(command.CodeTemperatures), 0)
}

// RequestSystemTroubleStatus returns the raw system trouble status reply.
func (c *Connection) RequestSystemTroubleStatus(ctx context.Context) (*message.GenericMessage, error) {
	return request[*message.GenericMessage](ctx, c, message.TypeSystemTrouble, command.Status(command.CodeSystemTroubleStatus), 0)
}

// RequestRealTimeClock returns the raw real time clock reply.
func (c *Connection) RequestRealTimeClock(ctx context.Context) (*message.GenericMessage, error) {
	return request[*message.GenericMessage](ctx, c, message.TypeRealTimeClock, command.Status(command.CodeRealTimeClock), 0)
}

// RequestVersion returns the raw version number reply.
func (c *Connection) RequestVersion(ctx context.Context) (*message.GenericMessage, error) {
	return request[*message.GenericMessage](ctx, c, message.TypeVersionNumber, command.Status(command.CodeVersionNumber), 0)
}

// sendBuilt returns a function sending the result of a command builder.
func (c *Connection) sendBuilt(ctx context.Context) func(*frame.Frame, error) error {
	return func(f *frame.Frame, err error) error {
		if err != nil {
			return err
		}

		return c.Send(ctx, f)
	}
}
