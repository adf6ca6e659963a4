package mapping

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Registry is the table of registered models. Polymorphic lookups resolve
// model names through it.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Register adds models after checking their configuration. Nested models
// reachable through attributes are registered too.
func (r *Registry) Register(models ...*Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, m := range models {
		errs = append(errs, r.register(m))
	}
	return errors.Join(errs...)
}

func (r *Registry) register(m *Model) error {
	if existing, ok := r.models[m.name]; ok {
		if existing == m {
			return nil
		}
		return fmt.Errorf("model %s already registered", m.name)
	}
	if err := m.Err(); err != nil {
		return err
	}
	r.models[m.name] = m
	r.order = append(r.order, m.name)

	var errs []error
	for _, a := range m.attrs {
		if nested, ok := a.Model(); ok {
			errs = append(errs, r.register(nested))
		}
	}
	if m.parent != nil {
		errs = append(errs, r.register(m.parent))
	}
	return errors.Join(errs...)
}

// Lookup returns the model registered as name.
func (r *Registry) Lookup(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// Models returns the registered models in registration order.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Model, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.models[n])
	}
	return out
}

// Names returns the registered model names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(slices.Values(r.order))
}

// Subtypes returns the registered models deriving from base, base included.
func (r *Registry) Subtypes(base *Model) []*Model {
	var out []*Model
	for _, m := range r.Models() {
		if m.IsA(base) {
			out = append(out, m)
		}
	}
	return out
}

// ResolvePolymorphic returns the model a value of attr should be built as,
// given the model name read from a discriminator.
func (r *Registry) ResolvePolymorphic(attr *Attribute, name string) (*Model, error) {
	m, ok := r.Lookup(name)
	if !ok {
		return nil, &PolymorphicTypeError{Attribute: attr.name, Value: name}
	}
	if err := checkPolymorphic(attr, m); err != nil {
		return nil, err
	}
	return m, nil
}
