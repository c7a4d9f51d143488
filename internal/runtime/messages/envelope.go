// Package messages provides typed message envelopes and the registry that
// turns raw broker payloads back into them.
package messages

import (
	"context"

	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	"github.com/drblury/toolbus/internal/runtime/metadata"
)

// Class is the interaction style of a message kind.
type Class int

const (
	// Publish messages are fire and forget.
	Publish Class = iota + 1
	// Request messages expect exactly one Response on their reply address.
	Request
	// Response messages answer a Request and are sent to its reply address.
	Response
)

func (c Class) String() string {
	switch c {
	case Publish:
		return "publish"
	case Request:
		return "request"
	case Response:
		return "response"
	default:
		return "unknown"
	}
}

// Envelope is the kind-independent view of a typed message.
type Envelope interface {
	Type() string
	Class() Class
	Subject() string
	ID() string
	Header() metadata.Metadata
	Body() any
	ShouldRespond() bool
	Respond(ctx context.Context, resp Envelope) error
}

// Replier sends a Response envelope to a reply address. The transport client
// implements it and attaches itself to inbound requests.
type Replier interface {
	Reply(ctx context.Context, replyTo string, resp Envelope) error
}

// Delivery carries broker level details of an inbound message into Decode.
type Delivery struct {
	Subject string
	Reply   string
	Header  metadata.Metadata
	Replier Replier
}

// Message is an envelope with a payload of type P. Values are immutable once
// built; only inbound requests carry reply state.
type Message[P any] struct {
	def     *Definition[P]
	subject string
	id      string
	header  metadata.Metadata
	payload P

	reply   string
	replier Replier
}

func (m *Message[P]) Type() string { return m.def.tag }

func (m *Message[P]) Class() Class { return m.def.class }

func (m *Message[P]) Subject() string { return m.subject }

func (m *Message[P]) ID() string { return m.id }

// Header returns a copy of the broker headers the message arrived with.
func (m *Message[P]) Header() metadata.Metadata { return m.header.Clone() }

// Payload returns the typed payload.
func (m *Message[P]) Payload() P { return m.payload }

// Body returns the payload as an untyped value for encoding.
func (m *Message[P]) Body() any { return m.payload }

// ReplyTo returns the reply address of an inbound request.
func (m *Message[P]) ReplyTo() string { return m.reply }

// ShouldRespond reports whether the message is an inbound request that still
// carries a reply address.
func (m *Message[P]) ShouldRespond() bool {
	return m.def.class == Request && m.reply != "" && m.replier != nil
}

// Respond sends resp to the reply address of this inbound request.
func (m *Message[P]) Respond(ctx context.Context, resp Envelope) error {
	if !m.ShouldRespond() {
		return errspkg.ErrNoReplyAddress
	}
	if resp == nil || resp.Class() != Response {
		return errspkg.ErrNotResponse
	}
	return m.replier.Reply(ctx, m.reply, resp)
}

// As returns env as a *Message[P] when its payload type is P.
func As[P any](env Envelope) (*Message[P], bool) {
	m, ok := env.(*Message[P])
	return m, ok
}
