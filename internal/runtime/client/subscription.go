package client

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/drblury/toolbus/internal/runtime/broker"
	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	"github.com/drblury/toolbus/internal/runtime/logging"
	"github.com/drblury/toolbus/internal/runtime/messages"
	"github.com/drblury/toolbus/internal/runtime/subjects"
)

type subscribeOptions struct {
	buffer int
}

// SubscribeOption adjusts a single Subscribe call.
type SubscribeOption func(*subscribeOptions)

// WithBuffer sets how many decoded envelopes may wait for the consumer.
func WithBuffer(n int) SubscribeOption {
	return func(o *subscribeOptions) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// Subscription is a lazy sequence of decoded envelopes for one subject or
// pattern. Payloads that fail to decode are logged and skipped.
type Subscription struct {
	pattern string
	sub     broker.Subscription
	log     logging.ServiceLogger

	envelopes chan messages.Envelope
	// done closes on Unsubscribe; drained closes once no more input arrives.
	done    chan struct{}
	drained chan struct{}
	// draining closes when Drain starts. From then on deliveries go to
	// overflow so the broker drain never waits for the consumer.
	draining chan struct{}
	queued   chan struct{}

	mu       sync.Mutex
	overflow []messages.Envelope

	stopOnce     sync.Once
	drainOnce    sync.Once
	drainingOnce sync.Once
}

// Subscribe starts receiving envelopes published to pattern.
func (c *Client) Subscribe(ctx context.Context, pattern string, opts ...SubscribeOption) (*Subscription, error) {
	if err := subjects.ValidPattern(pattern); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := c.connection("subscribe")
	if err != nil {
		return nil, err
	}

	o := subscribeOptions{buffer: c.conf.SubscriptionBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	if o.buffer <= 0 {
		o.buffer = 1
	}

	s := &Subscription{
		pattern:   pattern,
		log:       c.log.With(logging.LogFields{"pattern": pattern}),
		envelopes: make(chan messages.Envelope, o.buffer),
		done:      make(chan struct{}),
		drained:   make(chan struct{}),
		draining:  make(chan struct{}),
		queued:    make(chan struct{}, 1),
	}

	s.sub, err = conn.Subscribe(pattern, func(msg *broker.Msg) {
		env, err := c.decode(msg)
		if err != nil {
			c.metrics.RecordDecodeFailure(decodeFailureReason(err))
			s.log.Warn("Skipping undecodable message", logging.LogFields{
				"subject": msg.Subject,
				"error":   err.Error(),
			})
			return
		}
		c.metrics.RecordDelivered(env.Type())
		s.deliver(env)
	})
	if err != nil {
		return nil, &errspkg.ConnectionError{Op: "subscribe", Cause: err}
	}

	s.log.Debug("Subscribed", nil)
	return s, nil
}

func decodeFailureReason(err error) string {
	switch {
	case errors.Is(err, errspkg.ErrMalformedMessage):
		return "malformed"
	case errors.Is(err, errspkg.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, errspkg.ErrValidation):
		return "validation"
	default:
		return "other"
	}
}

func (s *Subscription) deliver(env messages.Envelope) {
	select {
	case <-s.draining:
		s.push(env)
		return
	default:
	}

	select {
	case s.envelopes <- env:
	case <-s.done:
	case <-s.draining:
		s.push(env)
	}
}

func (s *Subscription) push(env messages.Envelope) {
	s.mu.Lock()
	s.overflow = append(s.overflow, env)
	s.mu.Unlock()

	select {
	case s.queued <- struct{}{}:
	default:
	}
}

// pending returns the oldest envelope already received. Channel entries
// always predate overflow entries.
func (s *Subscription) pending() (messages.Envelope, bool) {
	select {
	case env := <-s.envelopes:
		return env, true
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.overflow) == 0 {
		return nil, false
	}
	env := s.overflow[0]
	s.overflow[0] = nil
	s.overflow = s.overflow[1:]
	return env, true
}

// Pattern returns the subject or pattern the subscription listens on.
func (s *Subscription) Pattern() string { return s.pattern }

// Next blocks until an envelope arrives, the subscription ends or ctx is
// done. Once the subscription ends Next returns ErrSubscriptionClosed.
func (s *Subscription) Next(ctx context.Context) (messages.Envelope, error) {
	select {
	case <-s.done:
		return nil, errspkg.ErrSubscriptionClosed
	default:
	}

	for {
		if env, ok := s.pending(); ok {
			return env, nil
		}

		select {
		case env := <-s.envelopes:
			return env, nil
		case <-s.queued:
		case <-s.done:
			return nil, errspkg.ErrSubscriptionClosed
		case <-s.drained:
			if env, ok := s.pending(); ok {
				return env, nil
			}
			return nil, errspkg.ErrSubscriptionClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// All yields envelopes until the subscription ends or ctx is done.
func (s *Subscription) All(ctx context.Context) iter.Seq[messages.Envelope] {
	return func(yield func(messages.Envelope) bool) {
		for {
			env, err := s.Next(ctx)
			if err != nil {
				return
			}
			if !yield(env) {
				return
			}
		}
	}
}

// Unsubscribe stops the subscription at once. Envelopes not yet returned by
// Next are dropped.
func (s *Subscription) Unsubscribe() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		err = s.sub.Unsubscribe()
		s.mu.Lock()
		s.overflow = nil
		s.mu.Unlock()
		s.log.Debug("Unsubscribed", nil)
	})
	return err
}

// Drain stops new deliveries and lets Next return what already arrived
// before reporting ErrSubscriptionClosed. It does not wait for the consumer.
// If ctx ends first the subscription is unsubscribed.
func (s *Subscription) Drain(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	default:
	}

	s.drainingOnce.Do(func() { close(s.draining) })
	if err := s.sub.Drain(ctx); err != nil {
		_ = s.Unsubscribe()
		return err
	}
	s.drainOnce.Do(func() { close(s.drained) })
	s.log.Debug("Subscription drained", nil)
	return nil
}
