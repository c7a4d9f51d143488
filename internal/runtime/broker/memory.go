package broker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	"github.com/drblury/toolbus/internal/runtime/ids"
	"github.com/drblury/toolbus/internal/runtime/subjects"
)

const memoryInboxPrefix = "_INBOX."

// Memory is an in-process broker with NATS subject semantics. Each
// subscription delivers on its own goroutine from an unbounded queue, so
// per-subject order from one publisher is preserved and slow handlers never
// block publishers.
type Memory struct {
	mu     sync.RWMutex
	subs   map[uint64]*memorySubscription
	nextID uint64
	closed bool

	inboxSeq atomic.Uint64
	inboxID  string
}

// NewMemory creates an empty in-memory broker.
func NewMemory() *Memory {
	return &Memory{
		subs:    make(map[uint64]*memorySubscription),
		inboxID: ids.NewMessageID(),
	}
}

func (m *Memory) Publish(ctx context.Context, msg *Msg) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := subjects.ValidSubject(msg.Subject); err != nil {
		return fmt.Errorf("toolbus: publish to %q: %w", msg.Subject, err)
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return &errspkg.ConnectionError{Op: "publish"}
	}
	targets := make([]*memorySubscription, 0, len(m.subs))
	for _, s := range m.subs {
		if subjects.Match(s.subject, msg.Subject) {
			targets = append(targets, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range targets {
		s.enqueue(&Msg{
			Subject: msg.Subject,
			Reply:   msg.Reply,
			Header:  msg.Header.Clone(),
			Data:    msg.Data,
		})
	}
	return nil
}

func (m *Memory) Subscribe(subject string, handler Handler) (Subscription, error) {
	if err := subjects.ValidPattern(subject); err != nil {
		return nil, fmt.Errorf("toolbus: subscribe to %q: %w", subject, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, &errspkg.ConnectionError{Op: "subscribe"}
	}

	m.nextID++
	s := &memorySubscription{
		broker:  m,
		id:      m.nextID,
		subject: subject,
		handler: handler,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	m.subs[s.id] = s
	go s.run()
	return s, nil
}

func (m *Memory) NewInbox() string {
	return fmt.Sprintf("%s%s.%d", memoryInboxPrefix, m.inboxID, m.inboxSeq.Add(1))
}

func (m *Memory) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.closed
}

// Drain drains every subscription and then closes the broker.
func (m *Memory) Drain(ctx context.Context) error {
	for _, s := range m.snapshot() {
		if err := s.Drain(ctx); err != nil {
			m.Close()
			return err
		}
	}
	m.Close()
	return nil
}

func (m *Memory) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	for _, s := range m.snapshot() {
		_ = s.Unsubscribe()
	}
}

func (m *Memory) snapshot() []*memorySubscription {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*memorySubscription, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, s)
	}
	return out
}

func (m *Memory) remove(id uint64) {
	m.mu.Lock()
	delete(m.subs, id)
	m.mu.Unlock()
}

type memorySubscription struct {
	broker  *Memory
	id      uint64
	subject string
	handler Handler

	mu       sync.Mutex
	queue    []*Msg
	draining bool
	stopped  bool

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func (s *memorySubscription) Subject() string {
	return s.subject
}

func (s *memorySubscription) enqueue(msg *Msg) {
	s.mu.Lock()
	if s.draining || s.stopped {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()
	s.signal()
}

func (s *memorySubscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *memorySubscription) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		if len(s.queue) == 0 {
			draining := s.draining
			s.mu.Unlock()
			if draining {
				return
			}
			select {
			case <-s.wake:
			case <-s.stop:
				return
			}
			continue
		}
		msg := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.handler(msg)
	}
}

func (s *memorySubscription) Unsubscribe() error {
	s.broker.remove(s.id)
	s.mu.Lock()
	s.stopped = true
	s.queue = nil
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *memorySubscription) Drain(ctx context.Context) error {
	s.broker.remove(s.id)
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()
	s.signal()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		_ = s.Unsubscribe()
		return ctx.Err()
	}
}
