package message

import (
	"fmt"
	"strconv"
	"strings"
)

// bodyReader extracts fixed-offset fields from a frame body and keeps the first parse error.
type bodyReader struct {
	typeCode string
	body     string
	err      error
}

func newBodyReader(typeCode string, body string) *bodyReader {
	return &bodyReader{typeCode: typeCode, body: body}
}

// text returns body[start:end], clamped to the body length.
func (r *bodyReader) text(start, end int) string {
	n := len(r.body)
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	if end < start {
		end = start
	}

	return r.body[start:end]
}

// number parses body[start:end] as a decimal integer.
func (r *bodyReader) number(start, end int) int {
	s := r.text(start, end)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		r.fail(start, end, s)
		return 0
	}

	return n
}

// nibble parses the single character at pos as a hexadecimal digit.
func (r *bodyReader) nibble(pos int) uint8 {
	s := r.text(pos, pos+1)
	n, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		r.fail(pos, pos+1, s)
		return 0
	}

	return uint8(n)
}

// char returns the byte at pos, or 0 when pos is outside the body.
func (r *bodyReader) char(pos int) byte {
	if pos < 0 || pos >= len(r.body) {
		r.fail(pos, pos+1, "")
		return 0
	}

	return r.body[pos]
}

func (r *bodyReader) fail(start, end int, s string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s field [%d:%d] %q", ErrMalformedBody, r.typeCode, start, end, s)
	}
}
