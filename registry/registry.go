package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Sentinel errors for registry operations.
var (
	// ErrNotRegistered is returned when no provider exists for a name.
	ErrNotRegistered = errors.New("registry: type is not registered")

	// ErrInvalidRegistration is returned for empty names or nil factories.
	ErrInvalidRegistration = errors.New("registry: invalid registration")
)

// Factory produces an instance of a registered type.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: a nil instance with a nil error is treated as a failure by Resolve.
type Factory func(ctx context.Context) (any, error)

// Registry maps type names to object providers.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: Resolve failures are ordinary errors; nothing panics.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	values    map[string]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		values:    make(map[string]any),
	}
}

// Register adds a factory under name. Duplicate names are rejected.
func (r *Registry) Register(name string, factory Factory) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return ErrInvalidRegistration
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registered(name) {
		return fmt.Errorf("registry: %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// RegisterValue adds a shared instance under name. Every Resolve for that
// name returns the same value. Duplicate names are rejected.
func (r *Registry) RegisterValue(name string, value any) error {
	name = strings.TrimSpace(name)
	if name == "" || value == nil {
		return ErrInvalidRegistration
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registered(name) {
		return fmt.Errorf("registry: %q already registered", name)
	}
	r.values[name] = value
	return nil
}

// registered reports whether name is taken. Caller must hold r.mu.
func (r *Registry) registered(name string) bool {
	if _, ok := r.factories[name]; ok {
		return true
	}
	_, ok := r.values[name]
	return ok
}

// Resolve produces an instance for name.
// Shared values take precedence over factories.
func (r *Registry) Resolve(ctx context.Context, name string) (any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidRegistration
	}

	r.mu.RLock()
	value, haveValue := r.values[name]
	factory, haveFactory := r.factories[name]
	r.mu.RUnlock()

	if haveValue {
		return value, nil
	}
	if !haveFactory {
		return nil, fmt.Errorf("registry: %q: %w", name, ErrNotRegistered)
	}

	instance, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: %q: %w", name, err)
	}
	if instance == nil {
		return nil, fmt.Errorf("registry: %q: factory returned nil", name)
	}
	return instance, nil
}

// Has reports whether name has a registered provider.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.registered(strings.TrimSpace(name))
}

// List returns registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories)+len(r.values))
	for name := range r.factories {
		names = append(names, name)
	}
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TypeName returns the canonical registry name for a type: the import path
// and type name of the nearest named type, unwrapping pointers. Unnamed
// types (func signatures, anonymous structs, plain interfaces) have no
// canonical name and yield "".
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return ""
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// Provide registers a typed factory under the canonical name of T.
func Provide[T any](r *Registry, factory func(ctx context.Context) (T, error)) error {
	if factory == nil {
		return ErrInvalidRegistration
	}
	name := TypeName(reflect.TypeOf((*T)(nil)).Elem())
	return r.Register(name, func(ctx context.Context) (any, error) {
		return factory(ctx)
	})
}

// ProvideValue registers a shared instance under the canonical name of T.
func ProvideValue[T any](r *Registry, value T) error {
	name := TypeName(reflect.TypeOf((*T)(nil)).Elem())
	return r.RegisterValue(name, value)
}
