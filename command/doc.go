// Package command builds outbound Elk M1 command frames.
//
// Every command is a two-character lowercase command code followed by fixed-width, zero-padded
// numeric arguments, encoded with frame.Encode. Arguments are validated before any frame is built;
// a failed validation returns an error wrapping ErrValidation.
package command
