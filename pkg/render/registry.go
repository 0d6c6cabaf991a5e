package render

import (
	"fmt"
	"sort"
	"sync"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
)

// Registry stores emitters by dialect, rejecting duplicates.
type Registry struct {
	mu       sync.RWMutex
	emitters map[model.Dialect]Emitter
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		emitters: make(map[model.Dialect]Emitter),
	}
}

// Register adds an emitter under its Dialect(). Duplicate dialects return an
// error.
func (r *Registry) Register(emitter Emitter) error {
	if emitter == nil {
		return fmt.Errorf("render: emitter is required")
	}
	dialect := emitter.Dialect()
	if dialect == "" {
		return fmt.Errorf("render: emitter dialect is required")
	}
	if dialect == model.DialectNone || dialect.Delegated() {
		return fmt.Errorf("render: dialect %q cannot have an emitter", dialect)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.emitters[dialect]; exists {
		return fmt.Errorf("render: emitter for %q already registered", dialect)
	}
	r.emitters[dialect] = emitter
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(emitter Emitter) {
	if err := r.Register(emitter); err != nil {
		panic(err)
	}
}

// Get retrieves the emitter for dialect. Unknown dialects wrap
// ErrUnsupportedDialect.
func (r *Registry) Get(dialect model.Dialect) (Emitter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	emitter, ok := r.emitters[dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}
	return emitter, nil
}

// List returns the registered dialects in sorted order.
func (r *Registry) List() []model.Dialect {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dialects := make([]model.Dialect, 0, len(r.emitters))
	for dialect := range r.emitters {
		dialects = append(dialects, dialect)
	}
	sort.Slice(dialects, func(i, j int) bool { return dialects[i] < dialects[j] })
	return dialects
}

// Has reports whether an emitter is registered for dialect.
func (r *Registry) Has(dialect model.Dialect) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.emitters[dialect]
	return ok
}
