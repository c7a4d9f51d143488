package client

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	"github.com/drblury/toolbus/internal/runtime/logging"
	"github.com/drblury/toolbus/internal/runtime/messages"
	"github.com/drblury/toolbus/internal/runtime/protocol"
)

// Handler answers one inbound request. Returning an error sends an
// error-response in place of a Response.
type Handler func(ctx context.Context, req messages.Envelope) (messages.Envelope, error)

type serveOptions struct {
	concurrency int
	hooks       Hooks
}

// ServeOption adjusts Serve.
type ServeOption func(*serveOptions)

// WithConcurrency bounds how many handlers run at the same time.
func WithConcurrency(n int) ServeOption {
	return func(o *serveOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithHooks adds lifecycle callbacks. Repeated calls merge.
func WithHooks(h Hooks) ServeOption {
	return func(o *serveOptions) {
		o.hooks = o.hooks.Merge(h)
	}
}

// Serve answers requests from sub until the subscription ends or ctx is
// done, then waits for running handlers. It returns nil when the
// subscription ended and ctx.Err() when the context did.
func (c *Client) Serve(ctx context.Context, sub *Subscription, handler Handler, opts ...ServeOption) error {
	if sub == nil {
		return errspkg.ErrSubscriptionClosed
	}

	o := serveOptions{concurrency: c.conf.ServeConcurrency}
	for _, opt := range opts {
		opt(&o)
	}

	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	var loopErr error
	for {
		req, err := sub.Next(ctx)
		if err != nil {
			if !errors.Is(err, errspkg.ErrSubscriptionClosed) {
				loopErr = err
			}
			break
		}
		if !req.ShouldRespond() {
			c.log.Warn("Skipping message without reply address", logging.LogFields{
				"subject": req.Subject(),
				"type":    req.Type(),
			})
			continue
		}
		g.Go(func() error {
			c.handle(gctx, req, handler, o.hooks)
			return nil
		})
	}

	_ = g.Wait()
	return loopErr
}

func (c *Client) handle(ctx context.Context, req messages.Envelope, handler Handler, hooks Hooks) {
	header := req.Header()
	job := Job{
		Subject:   req.Subject(),
		Type:      req.Type(),
		MessageID: req.ID(),
		Header:    header,
		Attempt:   header.Attempt(),
		StartedAt: time.Now(),
	}
	hooks.start(job)

	log := c.log.With(logging.LogFields{
		"subject":    job.Subject,
		"type":       job.Type,
		"message_id": job.MessageID,
	})

	resp, err := handler(ctx, req)
	if err == nil && resp == nil {
		err = errors.New("handler returned no response")
	}
	if err == nil {
		err = req.Respond(ctx, resp)
		if err == nil {
			c.metrics.RecordServed(job.Type, "ok")
			hooks.finish(job, nil)
			return
		}
		if !errors.Is(err, errspkg.ErrNotResponse) {
			c.metrics.RecordServed(job.Type, "reply_failed")
			log.Error("Failed to send response", err, nil)
			hooks.finish(job, err)
			return
		}
	}

	c.metrics.RecordServed(job.Type, "failure")
	log.Warn("Request handler failed", logging.LogFields{"error": err.Error()})
	hooks.finish(job, err)

	failure, ferr := protocol.FailureKind.Create(protocol.Failure{Error: err.Error()})
	if ferr != nil {
		log.Error("Failed to build error response", ferr, nil)
		return
	}
	if err := req.Respond(ctx, failure); err != nil {
		log.Error("Failed to send error response", err, nil)
	}
}
