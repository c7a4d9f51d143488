// Package stream provides optional durable publishing of envelopes through
// watermill publishers. Each stream system registers a Builder under the name
// used in Config.StreamSystem.
package stream

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/toolbus/internal/runtime/config"
	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
)

// Builder creates the publisher for one stream system.
type Builder func(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error)

// Registry maps stream system names to their builders and capabilities.
type Registry struct {
	mu           sync.RWMutex
	builders     map[string]Builder
	capabilities map[string]Capabilities
}

// DefaultRegistry holds the built-in stream systems.
var DefaultRegistry = NewRegistry()

func init() {
	registerBuiltins(DefaultRegistry)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders:     make(map[string]Builder),
		capabilities: make(map[string]Capabilities),
	}
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, builder Builder) {
	r.RegisterWithCapabilities(name, builder, Capabilities{Name: name})
}

// RegisterWithCapabilities adds or replaces the builder for name along with
// what the system guarantees.
func (r *Registry) RegisterWithCapabilities(name string, builder Builder, caps Capabilities) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = builder
	r.capabilities[name] = caps
}

// GetCapabilities returns the capabilities registered for name, or a zero
// value carrying only the name.
func (r *Registry) GetCapabilities(name string) Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if caps, ok := r.capabilities[name]; ok {
		return caps
	}
	return Capabilities{Name: name}
}

// Has reports whether a builder is registered for name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build creates the publisher for conf.StreamSystem.
func (r *Registry) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	name := conf.GetStreamSystem()
	if name == "" {
		return nil, errspkg.ErrSinkRequired
	}

	r.mu.RLock()
	builder, ok := r.builders[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown stream system: %q (registered: %v)", name, r.Names())
	}

	return builder(ctx, conf, logger)
}

// Open builds the configured publisher from r and wraps it in a Sink.
func (r *Registry) Open(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (*Sink, error) {
	publisher, err := r.Build(ctx, conf, logger)
	if err != nil {
		return nil, err
	}
	return NewSink(conf.GetStreamSystem(), publisher), nil
}

// Open builds the configured sink from the default registry.
func Open(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (*Sink, error) {
	return DefaultRegistry.Open(ctx, conf, logger)
}
