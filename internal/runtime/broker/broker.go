// Package broker abstracts the pub/sub connection the transport client runs
// on. NATS is the production backend; Memory serves tests and single-process
// deployments with the same subject semantics.
package broker

import (
	"context"
	"fmt"

	"github.com/drblury/toolbus/internal/runtime/config"
	"github.com/drblury/toolbus/internal/runtime/logging"
	"github.com/drblury/toolbus/internal/runtime/metadata"
)

// Msg is one message as seen by the broker.
type Msg struct {
	Subject string
	Reply   string
	Header  metadata.Metadata
	Data    []byte
}

// Handler receives messages for a subscription. Calls for one subscription
// are sequential and in arrival order.
type Handler func(msg *Msg)

// Conn is a shared broker connection, safe for concurrent use.
type Conn interface {
	Publish(ctx context.Context, msg *Msg) error
	Subscribe(subject string, handler Handler) (Subscription, error)
	NewInbox() string
	IsConnected() bool
	// Drain stops new deliveries, flushes pending ones and closes.
	Drain(ctx context.Context) error
	Close()
}

// Subscription is an active interest in a subject or pattern.
type Subscription interface {
	Subject() string
	// Unsubscribe stops delivery at once and drops anything pending.
	Unsubscribe() error
	// Drain stops new deliveries and returns once pending ones are handled.
	Drain(ctx context.Context) error
}

// DialFunc opens a connection for the given configuration.
type DialFunc func(ctx context.Context, cfg *config.Config, log logging.ServiceLogger) (Conn, error)

// Dial opens the backend selected by cfg.Broker.
func Dial(ctx context.Context, cfg *config.Config, log logging.ServiceLogger) (Conn, error) {
	switch cfg.Broker {
	case config.BrokerNATS, "":
		return DialNATS(ctx, cfg, log)
	case config.BrokerMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("toolbus: unknown broker %q", cfg.Broker)
	}
}

// Static returns a DialFunc that always hands out conn. Clients sharing one
// Memory broker are wired this way.
func Static(conn Conn) DialFunc {
	return func(context.Context, *config.Config, logging.ServiceLogger) (Conn, error) {
		return conn, nil
	}
}
