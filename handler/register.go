package handler

import (
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"
)

// registration binds an identifier to a constructible handler type.
// Exactly one of typ and factory is set.
type registration struct {
	typ     reflect.Type        // struct type behind a prototype
	factory func() http.Handler // constructor closure
}

// Register binds id to the struct type behind prototype, which must be a
// pointer to a struct implementing http.Handler. The struct's exported
// fields, in declaration order, are the handler's constructor dependencies.
//
// Field tags:
//   - `resolve:"-"` skips the field entirely.
//   - `resolve:"optional"` marks the dependency optional; when resolution
//     fails the field keeps its zero value.
//   - `default:"<literal>"` records a default for a builtin-typed field and
//     implies optional.
//
// Duplicate identifiers are rejected.
func (p *Pool) Register(id string, prototype http.Handler) error {
	id = strings.TrimSpace(id)
	if id == "" || prototype == nil {
		return ErrInvalidRegistration
	}
	t := reflect.TypeOf(prototype)
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("handler: %q: prototype must be a pointer to struct, got %T: %w", id, prototype, ErrInvalidRegistration)
	}
	return p.register(id, registration{typ: t.Elem()})
}

// RegisterFunc binds id to a constructor closure. Factory-built handlers
// have no introspectable dependencies; DependencyInfo reports an empty
// list for them. Duplicate identifiers are rejected.
func (p *Pool) RegisterFunc(id string, factory func() http.Handler) error {
	id = strings.TrimSpace(id)
	if id == "" || factory == nil {
		return ErrInvalidRegistration
	}
	return p.register(id, registration{factory: factory})
}

func (p *Pool) register(id string, reg registration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.regs[id]; exists {
		return fmt.Errorf("handler: %q already registered", id)
	}
	p.regs[id] = reg
	return nil
}

// Registered returns all registered identifiers in sorted order.
func (p *Pool) Registered() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.regs))
	for id := range p.regs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
