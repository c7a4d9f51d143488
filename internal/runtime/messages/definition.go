package messages

import (
	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	"github.com/drblury/toolbus/internal/runtime/ids"
	"github.com/drblury/toolbus/internal/runtime/jsoncodec"
	"github.com/drblury/toolbus/internal/runtime/metadata"
	"github.com/drblury/toolbus/internal/runtime/subjects"
)

// Kind is a registered message kind. Definitions are the only implementation.
type Kind interface {
	Type() string
	Class() Class
	decode(raw []byte, obj jsoncodec.Object, d Delivery) (Envelope, error)
}

// Definition describes one message kind: its wire tag, class, payload
// predicate and subject derivation rule.
type Definition[P any] struct {
	tag      string
	class    Class
	validate func(P) error
	subject  func(P) string
}

// NewPublish defines a fire-and-forget kind.
func NewPublish[P any](tag string, validate func(P) error, subject func(P) string) *Definition[P] {
	return newDefinition(tag, Publish, validate, subject)
}

// NewRequest defines a kind that expects a Response.
func NewRequest[P any](tag string, validate func(P) error, subject func(P) string) *Definition[P] {
	return newDefinition(tag, Request, validate, subject)
}

// NewResponse defines a kind sent on a reply address. It has no subject rule.
func NewResponse[P any](tag string, validate func(P) error) *Definition[P] {
	return newDefinition(tag, Response, validate, nil)
}

func newDefinition[P any](tag string, class Class, validate func(P) error, subject func(P) string) *Definition[P] {
	if tag == "" {
		panic("toolbus: message type tag cannot be empty")
	}
	if class != Response && subject == nil {
		panic("toolbus: message kind " + tag + " needs a subject rule")
	}
	return &Definition[P]{tag: tag, class: class, validate: validate, subject: subject}
}

func (d *Definition[P]) Type() string { return d.tag }

func (d *Definition[P]) Class() Class { return d.class }

// Validate runs the kind predicate against p.
func (d *Definition[P]) Validate(p P) error {
	if d.validate == nil {
		return nil
	}
	if err := d.validate(p); err != nil {
		return &errspkg.ValidationError{Type: d.tag, Cause: err}
	}
	return nil
}

// SubjectFor derives the subject for p, or "" for Response kinds.
func (d *Definition[P]) SubjectFor(p P) string {
	if d.subject == nil {
		return ""
	}
	return d.subject(p)
}

// Create validates p and builds an outbound message with a derived subject
// and a fresh id. It never touches the network.
func (d *Definition[P]) Create(p P) (*Message[P], error) {
	if err := d.Validate(p); err != nil {
		return nil, err
	}
	subject := d.SubjectFor(p)
	if subject != "" {
		if err := subjects.ValidSubject(subject); err != nil {
			return nil, &errspkg.ValidationError{Type: d.tag, Cause: err}
		}
	}
	return &Message[P]{def: d, subject: subject, id: ids.NewMessageID(), payload: p}, nil
}

// MustCreate is Create that panics on error. Intended for tests and static
// values.
func (d *Definition[P]) MustCreate(p P) *Message[P] {
	m, err := d.Create(p)
	if err != nil {
		panic(err)
	}
	return m
}

func (d *Definition[P]) decode(raw []byte, obj jsoncodec.Object, delivery Delivery) (Envelope, error) {
	var p P
	if err := jsoncodec.Unmarshal(raw, &p); err != nil {
		return nil, &errspkg.ValidationError{Type: d.tag, Cause: err}
	}
	if err := d.Validate(p); err != nil {
		return nil, err
	}

	subject, ok := obj.String(fieldSubject)
	if !ok || subject == "" {
		subject = delivery.Subject
	}
	if subject == "" {
		subject = d.SubjectFor(p)
	}

	id := delivery.Header.Get(metadata.KeyMessageID)
	if id == "" {
		id = ids.NewMessageID()
	}

	return &Message[P]{
		def:     d,
		subject: subject,
		id:      id,
		header:  delivery.Header.Clone(),
		payload: p,
		reply:   delivery.Reply,
		replier: delivery.Replier,
	}, nil
}
