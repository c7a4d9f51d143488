package messages

import (
	"fmt"

	"github.com/drblury/toolbus/internal/runtime/jsoncodec"
)

// Wire keys added next to the payload fields. Payload types must not use them.
const (
	fieldType    = "type"
	fieldSubject = "subject"
)

// Encode serializes env as a flat JSON object: the payload fields plus the
// type tag and, when set, the subject.
func Encode(env Envelope) ([]byte, error) {
	obj, err := jsoncodec.ObjectOf(env.Body())
	if err != nil {
		return nil, fmt.Errorf("toolbus: encode %s payload: %w", env.Type(), err)
	}
	for _, key := range []string{fieldType, fieldSubject} {
		if _, clash := obj[key]; clash {
			return nil, fmt.Errorf("toolbus: %s payload uses reserved field %q", env.Type(), key)
		}
	}
	if err := obj.SetString(fieldType, env.Type()); err != nil {
		return nil, err
	}
	if subject := env.Subject(); subject != "" {
		if err := obj.SetString(fieldSubject, subject); err != nil {
			return nil, err
		}
	}
	return jsoncodec.Marshal(obj)
}
