package handler

import (
	"context"
	"testing"

	"github.com/jonwraymond/handlerops/registry"
)

// BenchmarkPool_Get_Cached measures the steady-state hit path.
func BenchmarkPool_Get_Cached(b *testing.B) {
	pool := NewPool(Config{})
	ctx := context.Background()

	if err := pool.Register("ping", &pingHandler{}); err != nil {
		b.Fatalf("Register failed: %v", err)
	}
	if _, err := pool.Get(ctx, "ping"); err != nil {
		b.Fatalf("warmup Get failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pool.Get(ctx, "ping")
	}
}

// BenchmarkPool_Build measures fresh construction with one registry
// dependency and one defaulted builtin.
func BenchmarkPool_Build(b *testing.B) {
	reg := registry.NewRegistry()
	if err := registry.ProvideValue[Greeter](reg, &staticGreeter{msg: "hello"}); err != nil {
		b.Fatalf("ProvideValue failed: %v", err)
	}

	pool := NewPool(Config{Registry: reg})
	ctx := context.Background()

	if err := pool.Register("greet", &greetHandler{}); err != nil {
		b.Fatalf("Register failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := pool.Build(ctx, "greet"); err != nil {
			b.Fatalf("Build failed: %v", err)
		}
	}
}

// BenchmarkPool_DependencyInfo measures the cached introspection path.
func BenchmarkPool_DependencyInfo(b *testing.B) {
	pool := NewPool(Config{})
	ctx := context.Background()

	if err := pool.Register("greet", &greetHandler{}); err != nil {
		b.Fatalf("Register failed: %v", err)
	}
	pool.DependencyInfo(ctx, "greet")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = pool.DependencyInfo(ctx, "greet")
	}
}
