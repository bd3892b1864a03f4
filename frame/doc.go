// Package frame implements the line-oriented ASCII framing used by the Elk M1 control panel.
//
// A frame has the layout:
//
//	LEN(2 hex) | TYPE(2 chars) | BODY(variable) | CHECKSUM(2 hex)
//
// and is terminated by CRLF on the wire. LEN is the uppercase, zero-padded hexadecimal character
// count of the whole frame (LEN+TYPE+BODY+CHECKSUM). CHECKSUM is the two's complement of the 8-bit
// sum of every preceding character, so that summing the frame characters together with the numeric
// checksum value yields zero modulo 256.
//
// Outbound frames are produced by Encode, which appends the two reserved "future use" characters
// ("00") to the body before computing the length and checksum. Inbound frames are sliced
// positionally by Decode; checksum validation is left to the caller (see Frame.Verify) because the
// validation policy depends on whether the frame type is known to the message registry.
package frame
