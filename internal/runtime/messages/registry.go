package messages

import (
	"fmt"
	"sort"
	"sync"

	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	"github.com/drblury/toolbus/internal/runtime/jsoncodec"
)

// Registry maps wire type tags to message kinds. It is safe for concurrent
// use and read-mostly.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Kind
}

// NewRegistry builds a registry from an explicit list of kinds. Nil kinds
// and duplicate tags are rejected.
func NewRegistry(kinds ...Kind) (*Registry, error) {
	r := &Registry{kinds: make(map[string]Kind, len(kinds))}
	for i, k := range kinds {
		if k == nil {
			return nil, fmt.Errorf("%w: kind %d is nil", errspkg.ErrDefinitionRequired, i)
		}
		if _, dup := r.kinds[k.Type()]; dup {
			return nil, fmt.Errorf("%w: %q", errspkg.ErrDuplicateType, k.Type())
		}
		r.kinds[k.Type()] = k
	}
	return r, nil
}

// MustNewRegistry is NewRegistry that panics on error.
func MustNewRegistry(kinds ...Kind) *Registry {
	r, err := NewRegistry(kinds...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register stores k under its tag, replacing any previous kind.
func (r *Registry) Register(k Kind) {
	if k == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[k.Type()] = k
}

// Unregister removes the kind registered under k's tag. Envelopes already
// decoded are unaffected.
func (r *Registry) Unregister(k Kind) {
	if k == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.kinds, k.Type())
}

// Lookup returns the kind registered under tag.
func (r *Registry) Lookup(tag string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[tag]
	return k, ok
}

// Types returns the registered tags in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.kinds))
	for tag := range r.kinds {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Decode turns raw bytes into the typed envelope named by their type tag.
func (r *Registry) Decode(raw []byte) (Envelope, error) {
	return r.DecodeDelivery(raw, Delivery{})
}

// DecodeDelivery is Decode for a message received from the broker. The
// delivery's reply address and replier are attached to inbound requests.
func (r *Registry) DecodeDelivery(raw []byte, d Delivery) (Envelope, error) {
	obj, err := jsoncodec.SplitObject(raw)
	if err != nil {
		return nil, &errspkg.MalformedMessageError{Cause: err}
	}
	tag, _ := obj.String(fieldType)
	if tag == "" {
		return nil, &errspkg.UnknownTypeError{}
	}
	kind, ok := r.Lookup(tag)
	if !ok {
		return nil, &errspkg.UnknownTypeError{Type: tag}
	}
	return kind.decode(raw, obj, d)
}
