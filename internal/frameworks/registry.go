package frameworks

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps framework names to adapters. Registration happens during
// startup; resolution is concurrent.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register adds an adapter under its reported name. Registering the same
// name twice is an error.
func (r *Registry) Register(adapter Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := adapter.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("framework %q already registered", name)
	}

	r.adapters[name] = adapter
	return nil
}

// Resolve returns the adapter registered under name, or ErrUnsupported.
func (r *Registry) Resolve(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	return adapter, nil
}

// Names returns the registered framework names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the configuration schemas of every registered adapter,
// ordered by framework name.
func (r *Registry) Schemas() []Schema {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]Schema, 0, len(names))
	for _, name := range names {
		schemas = append(schemas, r.adapters[name].Schema())
	}
	return schemas
}
