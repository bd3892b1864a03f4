package message

import "errors"

// ErrMalformedBody indicates that a fixed-offset field of a known message type could not be parsed.
var ErrMalformedBody = errors.New("message: malformed body")
