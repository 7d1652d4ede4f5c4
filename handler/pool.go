package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/handlerops/observe"
	"github.com/jonwraymond/handlerops/registry"
)

// Config configures a Pool.
type Config struct {
	// Registry is the backing object registry used to resolve constructor
	// dependencies. A pool without a registry treats every lookup as failed
	// and relies on defaults.
	Registry *registry.Registry

	// DisableCaching turns off instance memoization: every Get builds a
	// fresh instance. Default: caching enabled.
	DisableCaching bool

	// Exclude lists identifiers exempt from caching regardless of the
	// global switch.
	Exclude []string

	// Logger receives diagnostics. Default: no-op logger.
	Logger observe.Logger

	// Metrics records resolutions. Default: no-op metrics.
	Metrics observe.Metrics
}

// Stats is a snapshot of pool counters.
type Stats struct {
	// Hits is the number of Get calls served from the instance cache.
	Hits int64

	// Misses is the number of instance-cache misses that triggered a
	// build. Callers served by a build already in flight count toward
	// neither Hits nor Misses.
	Misses int64

	// Builds is the number of completed instance constructions. Failed
	// builds are not counted.
	Builds int64

	// Cached is the current instance cache size.
	Cached int
}

// Pool maps handler identifiers to ready-to-use instances, resolving
// constructor dependencies from the backing registry and memoizing
// instances and dependency metadata for the worker process's lifetime.
//
// Contract:
// - Concurrency: safe for concurrent use; concurrent first builds of the
//   same identifier are deduplicated.
// - Errors: only construction errors cross Get and Build; introspection
//   and per-parameter registry failures are absorbed and logged.
type Pool struct {
	registry *registry.Registry
	logger   observe.Logger
	metrics  observe.Metrics

	mu        sync.RWMutex
	caching   bool
	excluded  map[string]struct{}
	regs      map[string]registration
	instances map[string]http.Handler
	specs     map[string][]ParamSpec

	group singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
	builds atomic.Int64
}

// NewPool creates a pool with the given configuration, applying defaults.
// One pool is expected per worker process, constructed at startup.
func NewPool(cfg Config) *Pool {
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}

	p := &Pool{
		registry:  cfg.Registry,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		caching:   !cfg.DisableCaching,
		excluded:  make(map[string]struct{}),
		regs:      make(map[string]registration),
		instances: make(map[string]http.Handler),
		specs:     make(map[string][]ParamSpec),
	}
	for _, id := range cfg.Exclude {
		p.excluded[id] = struct{}{}
	}
	return p
}

// Get returns the handler for id, building it on first use.
//
// With caching disabled or id excluded, every call builds a fresh instance
// and the instance cache is never touched. Otherwise the cached instance
// is returned when present; on a miss the handler is built, stored and
// returned, so at most one instance exists per identifier until an
// explicit ClearCache.
func (p *Pool) Get(ctx context.Context, id string) (http.Handler, error) {
	start := time.Now()
	meta := observe.HandlerMeta{ID: id}

	p.mu.RLock()
	caching := p.caching
	_, excluded := p.excluded[id]
	p.mu.RUnlock()

	if !caching || excluded {
		h, err := p.Build(ctx, id)
		p.metrics.RecordResolution(ctx, meta, time.Since(start), false, err)
		return h, err
	}

	p.mu.RLock()
	h, ok := p.instances[id]
	p.mu.RUnlock()
	if ok {
		p.hits.Add(1)
		p.logger.Debug(ctx, "handler cache hit", observe.Field{Key: "handler.id", Value: id})
		p.metrics.RecordResolution(ctx, meta, time.Since(start), true, nil)
		return h, nil
	}

	v, err, _ := p.group.Do(id, func() (any, error) {
		// Another flight may have populated the cache while we queued.
		p.mu.RLock()
		h, ok := p.instances[id]
		p.mu.RUnlock()
		if ok {
			return h, nil
		}

		p.misses.Add(1)
		built, err := p.Build(ctx, id)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		_, excl := p.excluded[id]
		if p.caching && !excl {
			p.instances[id] = built
		}
		p.mu.Unlock()
		return built, nil
	})
	p.metrics.RecordResolution(ctx, meta, time.Since(start), false, err)
	if err != nil {
		return nil, err
	}
	return v.(http.Handler), nil
}

// Build constructs a fresh instance of id, resolving each dependency in
// declaration order. A required dependency that the registry cannot
// produce and that has no default fails the whole build with
// *UnresolvableDependencyError; no partial instance is returned.
func (p *Pool) Build(ctx context.Context, id string) (http.Handler, error) {
	p.mu.RLock()
	reg, ok := p.regs[id]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("handler %q: %w", id, ErrNotRegistered)
	}

	if reg.factory != nil {
		h := reg.factory()
		p.builds.Add(1)
		return h, nil
	}

	specs := p.DependencyInfo(ctx, id)
	v := reflect.New(reg.typ)
	elem := v.Elem()
	for _, spec := range specs {
		if err := p.resolveField(ctx, id, elem, spec); err != nil {
			return nil, err
		}
	}
	p.builds.Add(1)
	return v.Interface().(http.Handler), nil
}

// resolveField resolves one dependency into its struct field.
//
// Declared non-builtin types are looked up in the registry first. Any
// lookup failure falls back to the default value for optional parameters
// (the zero value when no default is recorded) and escalates to
// *UnresolvableDependencyError for required ones.
func (p *Pool) resolveField(ctx context.Context, id string, elem reflect.Value, spec ParamSpec) error {
	field := elem.Field(spec.fieldIndex)

	var lookupErr error
	if spec.HasType && !spec.Builtin {
		obj, err := p.resolveType(ctx, spec.TypeName)
		if err == nil {
			rv := reflect.ValueOf(obj)
			if rv.Type().AssignableTo(field.Type()) {
				field.Set(rv)
				return nil
			}
			err = fmt.Errorf("handler: registry produced %T, want %s", obj, field.Type())
		}
		lookupErr = err
		p.logger.Debug(ctx, "registry lookup failed, falling back",
			observe.Field{Key: "handler.id", Value: id},
			observe.Field{Key: "param", Value: spec.Name},
			observe.Field{Key: "type", Value: spec.TypeName},
			observe.Field{Key: "error", Value: err.Error()})
	}

	if !spec.Optional {
		return &UnresolvableDependencyError{
			Class:    id,
			Param:    spec.Name,
			Position: spec.Position,
			Reason:   lookupErr,
		}
	}
	if spec.HasDefault {
		field.Set(reflect.ValueOf(spec.Default))
	}
	// Optional without default keeps the field's zero value.
	return nil
}

func (p *Pool) resolveType(ctx context.Context, name string) (any, error) {
	if p.registry == nil {
		return nil, ErrNoRegistry
	}
	return p.registry.Resolve(ctx, name)
}

// SetCaching toggles the global caching switch. Taking effect immediately,
// it does not clear already-cached instances.
func (p *Pool) SetCaching(enabled bool) {
	p.mu.Lock()
	p.caching = enabled
	p.mu.Unlock()
}

// Exclude exempts id from caching. Idempotent. An instance already cached
// for id is NOT evicted; exclusion affects future lookups only.
func (p *Pool) Exclude(id string) {
	p.mu.Lock()
	_, present := p.excluded[id]
	p.excluded[id] = struct{}{}
	p.mu.Unlock()

	if !present {
		p.logger.Info(context.Background(), "handler excluded from caching",
			observe.Field{Key: "handler.id", Value: id})
	}
}

// ClearCache empties both the instance cache and the dependency metadata
// cache. The pool itself stays usable.
func (p *Pool) ClearCache() {
	p.mu.Lock()
	p.instances = make(map[string]http.Handler)
	p.specs = make(map[string][]ParamSpec)
	p.mu.Unlock()

	p.logger.Info(context.Background(), "handler caches cleared")
}

// IsCached reports whether an instance for id is currently cached,
// independent of the exclusion set and the global switch.
func (p *Pool) IsCached(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.instances[id]
	return ok
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	cached := len(p.instances)
	p.mu.RUnlock()

	return Stats{
		Hits:   p.hits.Load(),
		Misses: p.misses.Load(),
		Builds: p.builds.Load(),
		Cached: cached,
	}
}

// Preflight builds every registered handler once, bypassing the instance
// cache, and reports each identifier that cannot be built. Intended to run
// at worker startup so wiring mistakes surface before the first request.
func (p *Pool) Preflight(ctx context.Context) error {
	var errs []error
	for _, id := range p.Registered() {
		if _, err := p.Build(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("preflight %q: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
