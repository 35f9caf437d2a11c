package plugin

import (
	"context"
	"fmt"
	"sync"
)

// ErrAlreadyInitialized is returned by Register once Initialize has run.
var ErrAlreadyInitialized = fmt.Errorf("plugin: registry already initialized")

// ErrDuplicateName is returned by Register for a name already registered.
type ErrDuplicateName struct{ Name string }

func (e *ErrDuplicateName) Error() string {
	return fmt.Sprintf("plugin: %q already registered", e.Name)
}

// Registry holds the set of plugins a tracker runs. Registration order is
// preserved for Init and replayed in reverse for Destroy, so a plugin that
// depends on an earlier one's side effects tears down first.
type Registry struct {
	mu          sync.Mutex
	byName      map[string]Plugin
	order       []Plugin
	initialized bool
	logger      Logger
}

// New constructs an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		byName: make(map[string]Plugin),
		logger: noopLogger{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger Initialize/Destroy use for per-plugin
// failures.
func WithLogger(l Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// Register adds p to the registry. It fails once Initialize has already
// run, or if a plugin under the same name is already registered.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return ErrAlreadyInitialized
	}
	if _, exists := r.byName[p.Name()]; exists {
		return &ErrDuplicateName{Name: p.Name()}
	}
	r.byName[p.Name()] = p
	r.order = append(r.order, p)
	return nil
}

// Initialize runs every registered plugin's Init in registration order. A
// failing plugin is logged and skipped; it does not prevent the rest from
// initializing. Calling Initialize more than once is a no-op after the
// first call.
func (r *Registry) Initialize(ctx context.Context, pctx Context) {
	r.mu.Lock()
	if r.initialized {
		r.mu.Unlock()
		return
	}
	r.initialized = true
	plugins := append([]Plugin(nil), r.order...)
	r.mu.Unlock()

	for _, p := range plugins {
		if err := p.Init(ctx, pctx); err != nil {
			r.logger.Error("plugin init failed", "plugin", p.Name(), "version", p.Version(), "err", err)
		}
	}
}

// Destroy runs every registered plugin's Destroy in reverse registration
// order, clears the registry, and resets the initialized flag so the same
// Registry can be reused for a fresh init/destroy cycle.
func (r *Registry) Destroy(ctx context.Context) {
	r.mu.Lock()
	plugins := append([]Plugin(nil), r.order...)
	r.mu.Unlock()

	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Destroy(ctx); err != nil {
			r.logger.Error("plugin destroy failed", "plugin", p.Name(), "version", p.Version(), "err", err)
		}
	}

	r.mu.Lock()
	r.byName = make(map[string]Plugin)
	r.order = nil
	r.initialized = false
	r.mu.Unlock()
}

// Names returns the registered plugin names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.order))
	for i, p := range r.order {
		names[i] = p.Name()
	}
	return names
}
