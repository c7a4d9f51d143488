package stream

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	"github.com/drblury/toolbus/internal/runtime/messages"
	"github.com/drblury/toolbus/internal/runtime/metadata"
)

// Sink publishes envelopes to a stream system. The topic is the envelope
// subject and the watermill UUID is the envelope id.
type Sink struct {
	name      string
	publisher message.Publisher
}

// NewSink wraps publisher. name is informational.
func NewSink(name string, publisher message.Publisher) *Sink {
	return &Sink{name: name, publisher: publisher}
}

// Name returns the stream system name.
func (s *Sink) Name() string { return s.name }

// Publish encodes env and hands it to the publisher.
func (s *Sink) Publish(ctx context.Context, env messages.Envelope) error {
	if env.Subject() == "" {
		return &errspkg.MissingSubjectError{Type: env.Type()}
	}

	payload, err := messages.Encode(env)
	if err != nil {
		return err
	}

	msg := message.NewMessage(env.ID(), payload)
	msg.Metadata = metadata.StreamMetadata(env.Header(), env.ID(), env.Type())
	msg.SetContext(ctx)

	return s.publisher.Publish(env.Subject(), msg)
}

// Close closes the underlying publisher.
func (s *Sink) Close() error {
	return s.publisher.Close()
}
