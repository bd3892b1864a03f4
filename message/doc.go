// Package message decodes Elk M1 frames into typed reports.
//
// Every inbound frame is first sliced by the frame package, then its two-character type code
// selects a decoder from a static registry. Known type codes produce a concrete report type
// (for example *ArmingStatusReport for "AS" or *ZoneStatusReport for "ZS"); unknown type codes
// produce a *GenericMessage that only carries the frame fields.
//
// Checksum policy: frames whose type code is not registered are checksum-validated before being
// returned, registered type codes are trusted as-is. DecodeStrict validates every frame.
//
// All lookup tables in this package (arm status, alarm state, zone definitions, event codes, key
// codes, illumination states, description types) are initialized once and never mutated.
package message
