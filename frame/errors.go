package frame

import "errors"

var (
	// ErrConstruction indicates that a frame was built with both or neither of a command and a raw response.
	ErrConstruction = errors.New("frame: exactly one of command or response must be supplied")

	// ErrChecksumMismatch indicates that the received checksum differs from the recomputed one.
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")

	// ErrFrameTooShort indicates that a raw frame cannot hold the length, type and checksum fields.
	ErrFrameTooShort = errors.New("frame: frame too short")
)
