package client

import (
	"time"

	"github.com/drblury/toolbus/internal/runtime/metadata"
)

// Job describes one request handled by Serve.
type Job struct {
	Subject   string
	Type      string
	MessageID string
	Header    metadata.Metadata
	// Attempt is the requester's attempt number, 0 when unknown.
	Attempt   int
	StartedAt time.Time
	// Duration is set for OnDone and OnError.
	Duration time.Duration
}

// Hooks are optional callbacks around each request handled by Serve.
type Hooks struct {
	OnStart func(job Job)
	OnDone  func(job Job)
	// OnError receives handler errors and failures to send the response.
	OnError func(job Job, err error)
}

// Merge returns hooks that call h first and then other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnStart: chainJob(h.OnStart, other.OnStart),
		OnDone:  chainJob(h.OnDone, other.OnDone),
		OnError: chainJobError(h.OnError, other.OnError),
	}
}

func chainJob(a, b func(Job)) func(Job) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(job Job) {
		a(job)
		b(job)
	}
}

func chainJobError(a, b func(Job, error)) func(Job, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(job Job, err error) {
		a(job, err)
		b(job, err)
	}
}

func (h Hooks) start(job Job) {
	if h.OnStart != nil {
		h.OnStart(job)
	}
}

func (h Hooks) finish(job Job, err error) {
	job.Duration = time.Since(job.StartedAt)
	if err != nil {
		if h.OnError != nil {
			h.OnError(job, err)
		}
		return
	}
	if h.OnDone != nil {
		h.OnDone(job)
	}
}
