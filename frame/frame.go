package frame

import (
	"fmt"
	"strings"
)

const (
	// LengthFieldSize is the size of the hexadecimal length field in characters.
	LengthFieldSize = 2
	// TypeCodeSize is the size of the message type code in characters.
	TypeCodeSize = 2
	// ChecksumSize is the size of the hexadecimal checksum field in characters.
	ChecksumSize = 2
	// MinFrameSize is the smallest frame that can be sliced: length, type code and checksum.
	MinFrameSize = LengthFieldSize + TypeCodeSize + ChecksumSize

	// FutureUse is the reserved suffix appended to every outbound body.
	FutureUse = "00"
)

// Frame is one complete protocol message unit.
//
// A Frame is immutable once constructed; the accessors return the positional fields and
// Raw returns lengthField+typeCode+body+checksum.
type Frame struct {
	lengthField string
	typeCode    string
	body        string
	checksum    string
	raw         string
}

// Source describes where a frame comes from when it is built with Build.
//
// Exactly one of Command or Response must be set. Command and Body build an outbound frame,
// Response holds a raw inbound frame.
type Source struct {
	Command  string
	Body     string
	Response string
}

// Build constructs a frame either by encoding Command+Body or by decoding Response.
//
// It returns ErrConstruction if both or neither of Command and Response are set.
func Build(src Source) (*Frame, error) {
	hasCommand := src.Command != ""
	hasResponse := src.Response != ""
	if hasCommand == hasResponse {
		return nil, ErrConstruction
	}

	if hasCommand {
		return Encode(src.Command, src.Body), nil
	}

	return Decode(src.Response)
}

// Encode builds an outbound frame for the given type code and body.
//
// The reserved FutureUse suffix is appended to body, the length field counts the whole frame
// including itself and the checksum.
func Encode(typeCode string, body string) *Frame {
	body += FutureUse
	content := typeCode + body
	lengthField := fmt.Sprintf("%02X", LengthFieldSize+len(content)+ChecksumSize)
	checksum := ComputeChecksum(lengthField + content)

	return &Frame{
		lengthField: lengthField,
		typeCode:    typeCode,
		body:        body,
		checksum:    checksum,
		raw:         lengthField + content + checksum,
	}
}

// Decode slices a raw inbound frame into its positional fields.
//
// Trailing CR/LF characters are ignored. The checksum is not verified, use Frame.Verify for that.
func Decode(raw string) (*Frame, error) {
	raw = strings.TrimRight(raw, "\r\n")
	if len(raw) < MinFrameSize {
		return nil, fmt.Errorf("%w: %q", ErrFrameTooShort, raw)
	}

	n := len(raw)

	return &Frame{
		lengthField: raw[0:LengthFieldSize],
		typeCode:    raw[LengthFieldSize : LengthFieldSize+TypeCodeSize],
		body:        raw[LengthFieldSize+TypeCodeSize : n-ChecksumSize],
		checksum:    raw[n-ChecksumSize:],
		raw:         raw,
	}, nil
}

// ComputeChecksum returns the two-digit uppercase hexadecimal checksum of s.
//
// The checksum is the 8-bit two's complement of the sum of all character values of s.
func ComputeChecksum(s string) string {
	sum := 0
	for i := 0; i < len(s); i++ {
		sum += int(s[i])
	}

	return fmt.Sprintf("%02X", (((sum&0xFF)^0xFF)+1)&0xFF)
}

// LengthField returns the two hexadecimal length characters.
func (f *Frame) LengthField() string { return f.lengthField }

// TypeCode returns the two-character message type code.
func (f *Frame) TypeCode() string { return f.typeCode }

// Body returns the characters between the type code and the checksum.
func (f *Frame) Body() string { return f.body }

// Checksum returns the two hexadecimal checksum characters.
func (f *Frame) Checksum() string { return f.checksum }

// Raw returns the complete frame without line terminator.
func (f *Frame) Raw() string { return f.raw }

// String implements fmt.Stringer.
func (f *Frame) String() string { return f.raw }

// Line returns the frame terminated by CRLF, ready to be written to the wire.
func (f *Frame) Line() string { return f.raw + "\r\n" }

// ValidChecksum reports whether the checksum field matches the recomputed checksum.
func (f *Frame) ValidChecksum() bool {
	return ComputeChecksum(f.lengthField+f.typeCode+f.body) == f.checksum
}

// Verify returns an error wrapping ErrChecksumMismatch if the checksum is invalid.
func (f *Frame) Verify() error {
	if expected := ComputeChecksum(f.lengthField + f.typeCode + f.body); expected != f.checksum {
		return fmt.Errorf("%w: type %s, expected %s, got %s", ErrChecksumMismatch, f.typeCode, expected, f.checksum)
	}

	return nil
}
