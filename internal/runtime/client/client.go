// Package client implements the transport client: typed publish, request and
// reply, subscriptions and request serving over one shared broker connection.
package client

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/drblury/toolbus/internal/runtime/broker"
	"github.com/drblury/toolbus/internal/runtime/config"
	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	"github.com/drblury/toolbus/internal/runtime/logging"
	"github.com/drblury/toolbus/internal/runtime/messages"
	"github.com/drblury/toolbus/internal/runtime/metadata"
	"github.com/drblury/toolbus/internal/runtime/metrics"
	"github.com/drblury/toolbus/internal/runtime/stream"
)

const tracerName = "github.com/drblury/toolbus/client"

// DurableSink receives envelopes published with PublishDurable.
type DurableSink interface {
	Publish(ctx context.Context, env messages.Envelope) error
	Close() error
}

// Dependencies lets callers replace the collaborators a client builds by
// default. Zero values are filled in by New.
type Dependencies struct {
	// Dial opens the broker connection. Defaults to broker.Dial.
	Dial broker.DialFunc
	// Metrics may be nil.
	Metrics *metrics.ClientMetrics
	// Sink overrides the stream sink built from Config.StreamSystem.
	Sink DurableSink
	// Tracer defaults to the global otel tracer provider.
	Tracer trace.Tracer
	// Propagator defaults to otel.GetTextMapPropagator().
	Propagator propagation.TextMapPropagator
}

// Client sends and receives envelopes over a broker connection. It is safe
// for concurrent use once started.
type Client struct {
	conf     *config.Config
	log      logging.ServiceLogger
	registry *messages.Registry

	dial       broker.DialFunc
	metrics    *metrics.ClientMetrics
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator

	mu     sync.RWMutex
	conn   broker.Conn
	sink   DurableSink
	closed bool
}

// New validates the configuration and prepares a client. No connection is
// opened until Start.
func New(conf *config.Config, log logging.ServiceLogger, registry *messages.Registry, deps Dependencies) (*Client, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if registry == nil {
		return nil, errspkg.ErrRegistryRequired
	}
	if err := conf.Validate(); err != nil {
		return nil, errspkg.NewConfigValidationError(err)
	}

	c := &Client{
		conf:       conf,
		log:        log.With(logging.LogFields{"component": "toolbus_client", "client_name": conf.ClientName}),
		registry:   registry,
		dial:       deps.Dial,
		metrics:    deps.Metrics,
		tracer:     deps.Tracer,
		propagator: deps.Propagator,
		sink:       deps.Sink,
	}
	if c.dial == nil {
		c.dial = broker.Dial
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	if c.propagator == nil {
		c.propagator = otel.GetTextMapPropagator()
	}
	if err := c.metrics.Register(); err != nil {
		return nil, err
	}
	return c, nil
}

// Registry returns the registry used to decode inbound payloads.
func (c *Client) Registry() *messages.Registry { return c.registry }

// Start opens the broker connection and, when configured, the stream sink.
// Calling Start on a started client is a no-op.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return &errspkg.ConnectionError{Op: "start", Cause: errspkg.ErrNotConnected}
	}
	if c.conn != nil {
		return nil
	}

	conn, err := c.dial(ctx, c.conf, c.log)
	if err != nil {
		return err
	}

	if c.sink == nil && c.conf.StreamSystem != "" {
		sink, err := stream.Open(ctx, c.conf, logging.NewWatermillAdapter(c.log))
		if err != nil {
			conn.Close()
			return err
		}
		c.sink = sink
	}

	c.conn = conn
	c.log.Info("Toolbus client started", logging.LogFields{
		"broker":        c.conf.Broker,
		"stream_system": c.conf.StreamSystem,
	})
	return nil
}

// IsConnected reports whether the client is started and the connection open.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.closed && c.conn.IsConnected()
}

// Close drains the connection, waiting at most Config.DrainTimeout, and
// closes the stream sink. The client cannot be restarted.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn, sink := c.conn, c.sink
	c.mu.Unlock()

	var drainErr error
	if conn != nil {
		if c.conf.DrainTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.conf.DrainTimeout)
			defer cancel()
		}
		drainErr = conn.Drain(ctx)
		if drainErr != nil {
			c.log.Warn("Drain did not complete, closing connection", logging.LogFields{"error": drainErr.Error()})
			conn.Close()
		}
	}
	if sink != nil {
		if err := sink.Close(); err != nil {
			c.log.Error("Failed to close stream sink", err, nil)
		}
	}

	c.log.Info("Toolbus client closed", nil)
	return drainErr
}

func (c *Client) connection(op string) (broker.Conn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil || c.closed {
		return nil, &errspkg.ConnectionError{Op: op}
	}
	return c.conn, nil
}

// Publish sends env without waiting for any answer.
func (c *Client) Publish(ctx context.Context, env messages.Envelope) error {
	if env.Subject() == "" {
		return &errspkg.MissingSubjectError{Type: env.Type()}
	}
	conn, err := c.connection("publish")
	if err != nil {
		return err
	}
	return c.send(ctx, conn, env.Subject(), "", env, 0)
}

// PublishDurable sends env to the configured stream sink instead of the
// broker connection.
func (c *Client) PublishDurable(ctx context.Context, env messages.Envelope) error {
	if env.Subject() == "" {
		return &errspkg.MissingSubjectError{Type: env.Type()}
	}

	c.mu.RLock()
	sink := c.sink
	c.mu.RUnlock()
	if sink == nil {
		return errspkg.ErrSinkRequired
	}

	if err := sink.Publish(ctx, env); err != nil {
		return err
	}
	c.metrics.RecordPublished(env.Type())
	return nil
}

// Reply sends resp to replyTo. It is attached to inbound requests so that
// Message.Respond can answer them.
func (c *Client) Reply(ctx context.Context, replyTo string, resp messages.Envelope) error {
	if resp == nil || resp.Class() != messages.Response {
		return errspkg.ErrNotResponse
	}
	if replyTo == "" {
		return errspkg.ErrNoReplyAddress
	}
	conn, err := c.connection("reply")
	if err != nil {
		return err
	}
	return c.send(ctx, conn, replyTo, "", resp, 0)
}

func (c *Client) send(ctx context.Context, conn broker.Conn, subject, reply string, env messages.Envelope, attempt int) error {
	data, err := messages.Encode(env)
	if err != nil {
		return err
	}

	header := metadata.New(
		metadata.KeyMessageID, env.ID(),
		metadata.KeyType, env.Type(),
	)
	if attempt > 0 {
		header.Set(metadata.KeyAttempt, strconv.Itoa(attempt))
	}
	c.propagator.Inject(ctx, header)

	if err := conn.Publish(ctx, &broker.Msg{
		Subject: subject,
		Reply:   reply,
		Header:  header,
		Data:    data,
	}); err != nil {
		return err
	}

	c.metrics.RecordPublished(env.Type())
	c.log.Trace("Envelope published", logging.LogFields{
		"subject":    subject,
		"type":       env.Type(),
		"message_id": env.ID(),
	})
	return nil
}

func (c *Client) decode(msg *broker.Msg) (messages.Envelope, error) {
	return c.registry.DecodeDelivery(msg.Data, messages.Delivery{
		Subject: msg.Subject,
		Reply:   msg.Reply,
		Header:  msg.Header,
		Replier: c,
	})
}

func (c *Client) requestTimeout() time.Duration {
	if c.conf.RequestTimeout > 0 {
		return c.conf.RequestTimeout
	}
	return DefaultRequestTimeout
}
