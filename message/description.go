package message

import (
	"strings"

	"github.com/arloliu/go-elkm1/frame"
)

// TextStringDescriptionReport is the "SD" reply with the configured name of one object.
//
// When the requested id has no description the panel answers with the next configured one,
// or with id 0 when no further description exists.
type TextStringDescriptionReport struct {
	Base
	DescriptionType DescriptionType
	ID              int
	Description     string
}

func decodeTextDescription(f *frame.Frame) (Message, error) {
	body := f.Body()
	r := newBodyReader(f.TypeCode(), body)
	msg := &TextStringDescriptionReport{
		Base:            Base{frame: f},
		DescriptionType: DescriptionType(r.number(0, 2)),
		ID:              r.number(2, 5),
		Description:     strings.TrimRight(r.text(5, len(body)-len(frame.FutureUse)), " \x00"),
	}
	if r.err != nil {
		return nil, r.err
	}

	return msg, nil
}
