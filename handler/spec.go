package handler

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/jonwraymond/handlerops/observe"
	"github.com/jonwraymond/handlerops/registry"
)

// ParamSpec describes one constructor dependency of a registered handler.
// Specs are derived once per identifier and cached for the pool's lifetime.
type ParamSpec struct {
	// Name is the dependency's field name.
	Name string

	// Position is the 0-based position among the handler's dependencies.
	Position int

	// Optional marks a dependency whose resolution failure is recoverable.
	Optional bool

	// HasType reports whether the declared type has a canonical registry
	// name. Anonymous types (func signatures, plain interfaces, anonymous
	// structs) do not.
	HasType bool

	// TypeName is the canonical registry name, empty when HasType is false.
	TypeName string

	// Builtin reports whether the declared type is a language builtin
	// (basic kinds, slices, maps, channels, funcs) that the registry cannot
	// produce by name.
	Builtin bool

	// HasDefault reports whether a default value is recorded.
	HasDefault bool

	// Default is the recorded default value, nil when HasDefault is false.
	Default any

	fieldIndex int
}

// DependencyInfo returns the ordered dependency descriptors for id.
//
// Successful introspection is cached permanently. Failed introspection
// (the identifier is not registered) is logged and an empty list is
// returned WITHOUT caching, so every subsequent call re-attempts it: a
// registration that arrives late must not be masked by a poisoned cache.
func (p *Pool) DependencyInfo(ctx context.Context, id string) []ParamSpec {
	p.mu.RLock()
	specs, cached := p.specs[id]
	reg, ok := p.regs[id]
	p.mu.RUnlock()

	if cached {
		return specs
	}
	if !ok {
		p.logger.Warn(ctx, "dependency introspection failed",
			observe.Field{Key: "handler.id", Value: id},
			observe.Field{Key: "reason", Value: "not registered"})
		return nil
	}

	if reg.typ != nil {
		specs = p.introspect(ctx, id, reg.typ)
	}

	p.mu.Lock()
	p.specs[id] = specs
	p.mu.Unlock()
	return specs
}

// introspect derives dependency descriptors from a struct type's exported
// fields in declaration order.
func (p *Pool) introspect(ctx context.Context, id string, t reflect.Type) []ParamSpec {
	var specs []ParamSpec
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("resolve") == "-" {
			continue
		}

		typeName := registry.TypeName(f.Type)
		spec := ParamSpec{
			Name:       f.Name,
			Position:   len(specs),
			HasType:    typeName != "",
			TypeName:   typeName,
			Builtin:    isBuiltin(f.Type),
			fieldIndex: i,
		}

		if raw, tagged := f.Tag.Lookup("default"); tagged {
			value, err := parseDefault(f.Type, raw)
			if err != nil {
				// A broken default must not abort introspection; the field
				// is simply treated as having no default.
				p.logger.Warn(ctx, "ignoring unparseable default",
					observe.Field{Key: "handler.id", Value: id},
					observe.Field{Key: "param", Value: f.Name},
					observe.Field{Key: "error", Value: err.Error()})
			} else {
				spec.HasDefault = true
				spec.Default = value
			}
		}
		spec.Optional = spec.HasDefault || f.Tag.Get("resolve") == "optional"

		specs = append(specs, spec)
	}
	return specs
}

// isBuiltin reports whether t is a type the registry cannot produce by
// name. Interfaces, pointers and structs are registry-resolvable.
func isBuiltin(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.Slice, reflect.Array, reflect.Map, reflect.Chan, reflect.Func:
		return true
	}
	return false
}

var durationType = reflect.TypeOf(time.Duration(0))

// parseDefault parses a default tag literal into a value of type t.
func parseDefault(t reflect.Type, raw string) (any, error) {
	v := reflect.New(t).Elem()

	switch t.Kind() {
	case reflect.String:
		v.SetString(raw)

	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		v.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if t == durationType {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, err
			}
			v.SetInt(int64(d))
			break
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		if v.OverflowInt(n) {
			return nil, fmt.Errorf("value %s overflows %s", raw, t)
		}
		v.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		if v.OverflowUint(n) {
			return nil, fmt.Errorf("value %s overflows %s", raw, t)
		}
		v.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		if v.OverflowFloat(f) {
			return nil, fmt.Errorf("value %s overflows %s", raw, t)
		}
		v.SetFloat(f)

	default:
		return nil, fmt.Errorf("type %s does not support default tags", t)
	}

	return v.Interface(), nil
}
