package broker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/drblury/toolbus/internal/runtime/config"
	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	"github.com/drblury/toolbus/internal/runtime/logging"
	"github.com/drblury/toolbus/internal/runtime/metadata"
)

// ConnectFunc allows overriding the NATS connection for testing.
var ConnectFunc = func(url string, opts ...nats.Option) (*nats.Conn, error) {
	return nats.Connect(url, opts...)
}

const connectPollInterval = 50 * time.Millisecond

// NATSConn is a Conn backed by a nats.go connection.
type NATSConn struct {
	nc     *nats.Conn
	log    logging.ServiceLogger
	closed chan struct{}
}

// DialNATS connects to cfg.Servers. The connection reconnects with a fixed
// backoff, forever when cfg.MaxReconnects is negative. DialNATS returns once
// the first connection is up, or fails after cfg.ConnectTimeout.
func DialNATS(ctx context.Context, cfg *config.Config, log logging.ServiceLogger) (*NATSConn, error) {
	log = log.With(logging.LogFields{"component": "nats", "client": cfg.ClientName})
	closed := make(chan struct{})
	var closeOnce sync.Once

	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.RetryOnFailedConnect(true),
		nats.DrainTimeout(cfg.DrainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("Disconnected from NATS", logging.LogFields{"error": errString(err)})
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("Reconnected to NATS", logging.LogFields{"url": nc.ConnectedUrlRedacted()})
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			closeOnce.Do(func() { close(closed) })
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			fields := logging.LogFields{}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			log.Error("NATS async error", err, fields)
		}),
	}

	nc, err := ConnectFunc(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, &errspkg.ConnectionError{Op: "connect", Cause: err}
	}

	if err := waitConnected(ctx, nc, cfg.ConnectTimeout); err != nil {
		nc.Close()
		return nil, &errspkg.ConnectionError{Op: "connect", Cause: err}
	}

	log.Info("Connected to NATS", logging.LogFields{"url": nc.ConnectedUrlRedacted()})
	return &NATSConn{nc: nc, log: log, closed: closed}, nil
}

func waitConnected(ctx context.Context, nc *nats.Conn, timeout time.Duration) error {
	if nc.IsConnected() {
		return nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(connectPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if nc.IsConnected() {
				return nil
			}
		}
	}
}

func (c *NATSConn) Publish(ctx context.Context, msg *Msg) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.nc.PublishMsg(&nats.Msg{
		Subject: msg.Subject,
		Reply:   msg.Reply,
		Header:  metadata.ToHeader(msg.Header),
		Data:    msg.Data,
	})
	if err != nil {
		return &errspkg.ConnectionError{Op: "publish", Cause: err}
	}
	return nil
}

func (c *NATSConn) Subscribe(subject string, handler Handler) (Subscription, error) {
	sub, err := c.nc.Subscribe(subject, func(m *nats.Msg) {
		handler(&Msg{
			Subject: m.Subject,
			Reply:   m.Reply,
			Header:  metadata.FromHeader(m.Header),
			Data:    m.Data,
		})
	})
	if err != nil {
		return nil, &errspkg.ConnectionError{Op: "subscribe", Cause: err}
	}
	return &natsSubscription{sub: sub}, nil
}

func (c *NATSConn) NewInbox() string {
	return nats.NewInbox()
}

func (c *NATSConn) IsConnected() bool {
	return c.nc.IsConnected()
}

func (c *NATSConn) Drain(ctx context.Context) error {
	if c.nc.IsClosed() {
		return nil
	}
	if err := c.nc.Drain(); err != nil {
		return err
	}
	select {
	case <-c.closed:
		return nil
	case <-ctx.Done():
		c.nc.Close()
		return ctx.Err()
	}
}

func (c *NATSConn) Close() {
	c.nc.Close()
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Subject() string {
	return s.sub.Subject
}

func (s *natsSubscription) Unsubscribe() error {
	err := s.sub.Unsubscribe()
	if err == nats.ErrConnectionClosed || err == nats.ErrBadSubscription {
		return nil
	}
	return err
}

func (s *natsSubscription) Drain(ctx context.Context) error {
	if err := s.sub.Drain(); err != nil {
		if err == nats.ErrConnectionClosed || err == nats.ErrBadSubscription {
			return nil
		}
		return err
	}

	ticker := time.NewTicker(connectPollInterval)
	defer ticker.Stop()
	for s.sub.IsValid() {
		select {
		case <-ctx.Done():
			_ = s.sub.Unsubscribe()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
