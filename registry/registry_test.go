package registry

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func TestRegistry_RegisterAndResolve(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	err := reg.Register("db", func(ctx context.Context) (any, error) {
		return "connection", nil
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := reg.Resolve(ctx, "db")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "connection" {
		t.Errorf("Resolve returned %v, want %q", got, "connection")
	}
}

func TestRegistry_RegisterValue(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	shared := &systemClock{}
	if err := reg.RegisterValue("clock", shared); err != nil {
		t.Fatalf("RegisterValue failed: %v", err)
	}

	first, err := reg.Resolve(ctx, "clock")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, _ := reg.Resolve(ctx, "clock")
	if first != second {
		t.Error("RegisterValue should yield the same instance on every Resolve")
	}
}

func TestRegistry_NotRegistered(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Resolve(context.Background(), "missing")
	if !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Resolve for unknown name should return ErrNotRegistered, got: %v", err)
	}
}

func TestRegistry_InvalidRegistration(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("", func(ctx context.Context) (any, error) { return 1, nil }); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("empty name should be rejected, got: %v", err)
	}
	if err := reg.Register("x", nil); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("nil factory should be rejected, got: %v", err)
	}
	if err := reg.RegisterValue("x", nil); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("nil value should be rejected, got: %v", err)
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := NewRegistry()

	if err := reg.RegisterValue("clock", &systemClock{}); err != nil {
		t.Fatalf("RegisterValue failed: %v", err)
	}
	if err := reg.Register("clock", func(ctx context.Context) (any, error) { return nil, nil }); err == nil {
		t.Error("duplicate name should be rejected across factories and values")
	}
}

func TestRegistry_FactoryFailure(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	boom := errors.New("boom")
	_ = reg.Register("flaky", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	_ = reg.Register("nilly", func(ctx context.Context) (any, error) {
		return nil, nil
	})

	if _, err := reg.Resolve(ctx, "flaky"); !errors.Is(err, boom) {
		t.Errorf("factory error should propagate, got: %v", err)
	}
	if _, err := reg.Resolve(ctx, "nilly"); err == nil {
		t.Error("a nil instance with nil error should be treated as a failure")
	}
}

func TestRegistry_HasAndList(t *testing.T) {
	reg := NewRegistry()

	_ = reg.RegisterValue("zeta", 1)
	_ = reg.Register("alpha", func(ctx context.Context) (any, error) { return 2, nil })

	if !reg.Has("zeta") || !reg.Has("alpha") {
		t.Error("Has should report registered names")
	}
	if reg.Has("missing") {
		t.Error("Has should report false for unknown names")
	}

	got := reg.List()
	want := []string{"alpha", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want string
	}{
		{"interface", reflect.TypeOf((*Clock)(nil)).Elem(), "github.com/jonwraymond/handlerops/registry.Clock"},
		{"pointer to struct", reflect.TypeOf(&systemClock{}), "github.com/jonwraymond/handlerops/registry.systemClock"},
		{"struct", reflect.TypeOf(systemClock{}), "github.com/jonwraymond/handlerops/registry.systemClock"},
		{"basic", reflect.TypeOf(0), "int"},
		{"stdlib named", reflect.TypeOf(time.Second), "time.Duration"},
		{"anonymous", reflect.TypeOf(func() {}), ""},
		{"empty interface", reflect.TypeOf((*any)(nil)).Elem(), ""},
		{"nil", nil, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TypeName(tc.typ); got != tc.want {
				t.Errorf("TypeName = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestProvide(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	err := Provide[Clock](reg, func(ctx context.Context) (Clock, error) {
		return systemClock{}, nil
	})
	if err != nil {
		t.Fatalf("Provide failed: %v", err)
	}

	name := TypeName(reflect.TypeOf((*Clock)(nil)).Elem())
	got, err := reg.Resolve(ctx, name)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, ok := got.(Clock); !ok {
		t.Errorf("Resolve returned %T, want a Clock", got)
	}
}

func TestProvideValue(t *testing.T) {
	reg := NewRegistry()

	clock := &systemClock{}
	if err := ProvideValue[Clock](reg, clock); err != nil {
		t.Fatalf("ProvideValue failed: %v", err)
	}

	got, err := reg.Resolve(context.Background(), "github.com/jonwraymond/handlerops/registry.Clock")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != any(clock) {
		t.Error("ProvideValue should resolve to the registered instance")
	}
}
