package client

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/drblury/toolbus/internal/runtime/broker"
	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	"github.com/drblury/toolbus/internal/runtime/logging"
	"github.com/drblury/toolbus/internal/runtime/messages"
	"github.com/drblury/toolbus/internal/runtime/metrics"
)

const (
	// DefaultRequestTimeout applies when neither the config nor the call sets one.
	DefaultRequestTimeout = 10 * time.Second
	// MaxRequestAttempts bounds a request with retry on timeout enabled.
	MaxRequestAttempts = 2
)

var errAttemptTimedOut = errors.New("attempt timed out")

type requestOptions struct {
	timeout        time.Duration
	retryOnTimeout bool
}

// RequestOption adjusts a single Request call.
type RequestOption func(*requestOptions)

// WithTimeout sets the reply window of each attempt.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRetryOnTimeout allows one more attempt after the first one times out.
func WithRetryOnTimeout(retry bool) RequestOption {
	return func(o *requestOptions) {
		o.retryOnTimeout = retry
	}
}

// Request sends a Request envelope and waits for its Response. Each attempt
// uses a private inbox, so a late reply to an earlier attempt is never
// mistaken for the answer to a later one.
func (c *Client) Request(ctx context.Context, env messages.Envelope, opts ...RequestOption) (messages.Envelope, error) {
	if env.Class() != messages.Request {
		return nil, errspkg.ErrNotRequest
	}
	if env.Subject() == "" {
		return nil, &errspkg.MissingSubjectError{Type: env.Type()}
	}
	conn, err := c.connection("request")
	if err != nil {
		return nil, err
	}

	o := requestOptions{
		timeout:        c.requestTimeout(),
		retryOnTimeout: c.conf.RetryOnTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := c.tracer.Start(ctx, "toolbus.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("messaging.system", "nats"),
			attribute.String("messaging.destination.name", env.Subject()),
			attribute.String("messaging.message.id", env.ID()),
			attribute.String("toolbus.type", env.Type()),
		),
	)
	defer span.End()

	maxAttempts := 1
	if o.retryOnTimeout {
		maxAttempts = MaxRequestAttempts
	}

	start := time.Now()
	var (
		resp    messages.Envelope
		attempt int
	)
	for attempt = 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			c.metrics.RecordRetry(env.Type())
			c.log.Debug("Request timed out, retrying", logging.LogFields{
				"subject": env.Subject(),
				"type":    env.Type(),
				"attempt": attempt,
			})
		}
		resp, err = c.requestOnce(ctx, conn, env, o.timeout, attempt)
		if !errors.Is(err, errAttemptTimedOut) {
			break
		}
	}
	if errors.Is(err, errAttemptTimedOut) {
		err = &errspkg.TimeoutError{Subject: env.Subject(), Window: o.timeout, Attempts: maxAttempts}
	}

	span.SetAttributes(attribute.Int("toolbus.attempts", min(attempt, maxAttempts)))
	c.metrics.RecordRequest(env.Type(), outcome(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("toolbus.response_type", resp.Type()))
	return resp, nil
}

func (c *Client) requestOnce(ctx context.Context, conn broker.Conn, env messages.Envelope, timeout time.Duration, attempt int) (messages.Envelope, error) {
	inbox := conn.NewInbox()
	replies := make(chan *broker.Msg, 1)

	sub, err := conn.Subscribe(inbox, func(msg *broker.Msg) {
		select {
		case replies <- msg:
		default:
		}
	})
	if err != nil {
		return nil, &errspkg.ConnectionError{Op: "request", Cause: err}
	}
	defer func() { _ = sub.Unsubscribe() }()

	if err := c.send(ctx, conn, env.Subject(), inbox, env, attempt); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-replies:
		resp, err := c.decode(msg)
		if err != nil {
			return nil, err
		}
		if resp.Class() != messages.Response {
			return nil, &errspkg.ProtocolViolationError{
				Subject: env.Subject(),
				Type:    resp.Type(),
				Reason:  "reply is not a response",
			}
		}
		return resp, nil
	case <-timer.C:
		return nil, errAttemptTimedOut
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, errspkg.ErrTimeout):
		return metrics.OutcomeTimeout
	case errspkg.Classify(err) == errspkg.CategoryProtocol:
		return metrics.OutcomeProtocolViolation
	default:
		return metrics.OutcomeError
	}
}
