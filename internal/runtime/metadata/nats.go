package metadata

import "github.com/nats-io/nats.go"

// FromHeader converts NATS headers into metadata, keeping the first value of
// each key.
func FromHeader(h nats.Header) Metadata {
	if len(h) == 0 {
		return Metadata{}
	}

	result := make(Metadata, len(h))
	for k, values := range h {
		if len(values) > 0 {
			result[k] = values[0]
		}
	}
	return result
}

// ToHeader converts metadata into NATS headers. Empty metadata yields nil so
// header-less servers still accept the message.
func ToHeader(md Metadata) nats.Header {
	if len(md) == 0 {
		return nil
	}

	h := make(nats.Header, len(md))
	for k, v := range md {
		h[k] = []string{v}
	}
	return h
}
