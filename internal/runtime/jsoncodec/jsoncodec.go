package jsoncodec

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/bytedance/sonic"
)

var defaultConfig = sonic.ConfigStd

var errNotObject = errors.New("expected a JSON object")

// Object is a JSON object with its members left undecoded.
type Object map[string]json.RawMessage

func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return defaultConfig.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return defaultConfig.Unmarshal(data, v)
}

func Encode(w io.Writer, v any) error {
	return defaultConfig.NewEncoder(w).Encode(v)
}

func Decode(r io.Reader, v any) error {
	return defaultConfig.NewDecoder(r).Decode(v)
}

// SplitObject decodes data as a JSON object without decoding its members.
func SplitObject(data []byte) (Object, error) {
	var obj Object
	if err := defaultConfig.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errNotObject
	}
	return obj, nil
}

// ObjectOf marshals v and splits the result. v must encode to a JSON object.
func ObjectOf(v any) (Object, error) {
	data, err := defaultConfig.Marshal(v)
	if err != nil {
		return nil, err
	}
	return SplitObject(data)
}

// String returns the member key decoded as a string. ok is false when the
// member is absent or not a string.
func (o Object) String(key string) (value string, ok bool) {
	raw, present := o[key]
	if !present {
		return "", false
	}
	if err := defaultConfig.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}

// SetString stores value under key.
func (o Object) SetString(key, value string) error {
	raw, err := defaultConfig.Marshal(value)
	if err != nil {
		return err
	}
	o[key] = raw
	return nil
}
