package container

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/km-arc/go-beans/framework/errs"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory builds a value from the registry.
type Factory func(r *Registry) (any, error)

// binding holds a registered factory and whether it is a singleton.
type binding struct {
	factory   Factory
	singleton bool
}

// Extender wraps an already-resolved instance with decorator logic.
type Extender func(instance any, r *Registry) (any, error)

// ErrSelfAlias is returned by Alias when a name is aliased to itself.
var ErrSelfAlias = errors.New("container: name aliased to itself")

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry is a string-keyed store of managed objects built by factory
// functions. It backs the application kernel and, through
// DelegatingFactory, can serve as a BeanFactory.
//
// It supports:
//   - Bind / Singleton / Instance / Alias
//   - Make / MakeAs (generic)
//   - Tags (group multiple abstractions under one tag)
//   - Extend (decorate resolved instances)
//   - Rebound and resolved callbacks
type Registry struct {
	mu sync.RWMutex

	// abstract → binding
	bindings map[string]*binding

	// abstract → resolved singleton instance
	instances map[string]any

	// alias → abstract (canonical key)
	aliases map[string]string

	// abstract → extender funcs
	extenders map[string][]Extender

	// tag → []abstract
	tags map[string][]string

	// rebound callbacks: abstract → []func(any)
	reboundCallbacks map[string][]func(any)

	// resolved callbacks: []func(abstract, instance)
	afterResolving []func(string, any)

	// serialises singleton construction per abstract
	building keyedMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{
		bindings:         make(map[string]*binding),
		instances:        make(map[string]any),
		aliases:          make(map[string]string),
		extenders:        make(map[string][]Extender),
		tags:             make(map[string][]string),
		reboundCallbacks: make(map[string][]func(any)),
	}
	r.Instance("registry", r)
	return r
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient factory: every Make builds a new value.
//
//	r.Bind("clock", func(*container.Registry) (any, error) {
//	    return time.Now, nil
//	})
func (r *Registry) Bind(abstract string, factory Factory) {
	r.bind(abstract, factory, false)
}

// Singleton registers a factory whose result is cached after first
// resolution.
//
//	r.Singleton("metrics", func(*container.Registry) (any, error) {
//	    return metrics.New("beans"), nil
//	})
func (r *Registry) Singleton(abstract string, factory Factory) {
	r.bind(abstract, factory, true)
}

// Instance registers a pre-built value as a singleton.
func (r *Registry) Instance(abstract string, instance any) {
	r.mu.Lock()
	key := r.canonical(abstract)
	delete(r.bindings, key)
	r.instances[key] = instance
	r.mu.Unlock()

	r.fireRebound(abstract, instance)
}

func (r *Registry) bind(abstract string, factory Factory, singleton bool) {
	r.mu.Lock()
	key := r.canonical(abstract)

	// Drop an existing instance so it is rebuilt with the new factory.
	_, wasResolved := r.instances[key]
	delete(r.instances, key)
	r.bindings[key] = &binding{factory: factory, singleton: singleton}
	r.mu.Unlock()

	if wasResolved && r.hasRebound(abstract) {
		if inst, err := r.Make(abstract); err == nil {
			r.fireRebound(abstract, inst)
		}
	}
}

// Alias registers an alternative name for an abstract.
func (r *Registry) Alias(abstract, alias string) error {
	if abstract == alias {
		return fmt.Errorf("%w: [%s]", ErrSelfAlias, abstract)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = r.canonical(abstract)
	return nil
}

// AliasesOf returns the aliases pointing at abstract, sorted.
func (r *Registry) AliasesOf(abstract string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := r.canonical(abstract)
	var out []string
	for alias, target := range r.aliases {
		if target == key {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates the resolved instance of an abstract. An already
// resolved singleton is decorated immediately.
func (r *Registry) Extend(abstract string, fn Extender) error {
	r.mu.Lock()
	key := r.canonical(abstract)
	r.extenders[key] = append(r.extenders[key], fn)
	inst, resolved := r.instances[key]
	r.mu.Unlock()

	if !resolved {
		return nil
	}
	extended, err := fn(inst, r)
	if err != nil {
		return fmt.Errorf("container: extend [%s]: %w", abstract, err)
	}
	r.mu.Lock()
	r.instances[key] = extended
	r.mu.Unlock()
	r.fireRebound(abstract, extended)
	return nil
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple abstracts under a named group.
func (r *Registry) Tag(abstracts []string, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[tag] = append(r.tags[tag], abstracts...)
}

// Tagged resolves all abstracts registered under a tag, in tag order.
func (r *Registry) Tagged(tag string) ([]any, error) {
	r.mu.RLock()
	abstracts := append([]string(nil), r.tags[tag]...)
	r.mu.RUnlock()

	result := make([]any, 0, len(abstracts))
	for _, abs := range abstracts {
		inst, err := r.Make(abs)
		if err != nil {
			return nil, err
		}
		result = append(result, inst)
	}
	return result, nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves an abstract. An unknown name fails with a bean-not-found
// error.
func (r *Registry) Make(abstract string) (any, error) {
	r.mu.RLock()
	key := r.canonical(abstract)
	if inst, ok := r.instances[key]; ok {
		r.mu.RUnlock()
		return inst, nil
	}
	b, ok := r.bindings[key]
	r.mu.RUnlock()

	if !ok {
		return nil, errs.NotFound(abstract)
	}
	if !b.singleton {
		return r.runFactory(key, b.factory)
	}

	unlock := r.building.Lock(key)
	defer unlock()

	r.mu.RLock()
	inst, ok := r.instances[key]
	r.mu.RUnlock()
	if ok {
		return inst, nil
	}

	inst, err := r.runFactory(key, b.factory)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.instances[key] = inst
	r.mu.Unlock()
	return inst, nil
}

// runFactory executes a factory and applies extenders.
func (r *Registry) runFactory(key string, f Factory) (any, error) {
	instance, err := f(r)
	if err != nil {
		return nil, fmt.Errorf("container: build [%s]: %w", key, err)
	}

	r.mu.RLock()
	exts := append([]Extender(nil), r.extenders[key]...)
	r.mu.RUnlock()
	for _, ext := range exts {
		if instance, err = ext(instance, r); err != nil {
			return nil, fmt.Errorf("container: extend [%s]: %w", key, err)
		}
	}

	r.fireAfterResolving(key, instance)
	return instance, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound reports whether an abstract or alias has been registered.
func (r *Registry) Bound(abstract string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := r.canonical(abstract)
	_, hasBinding := r.bindings[key]
	_, hasInstance := r.instances[key]
	return hasBinding || hasInstance
}

// Resolved reports whether the abstract holds a cached instance.
func (r *Registry) Resolved(abstract string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.instances[r.canonical(abstract)]
	return ok
}

// IsShared reports whether the abstract resolves to one shared instance:
// a singleton binding or a registered instance.
func (r *Registry) IsShared(abstract string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := r.canonical(abstract)
	if _, ok := r.instances[key]; ok {
		return true
	}
	b, ok := r.bindings[key]
	return ok && b.singleton
}

// Forget removes the binding and instance of an abstract.
func (r *Registry) Forget(abstract string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.canonical(abstract)
	delete(r.bindings, key)
	delete(r.instances, key)
}

// Bindings returns every registered abstract key, sorted.
func (r *Registry) Bindings() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.bindings)+len(r.instances))
	for k := range r.bindings {
		out = append(out, k)
	}
	for k := range r.instances {
		if _, already := r.bindings[k]; !already {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// canonical resolves an alias to its canonical key (caller holds mu).
func (r *Registry) canonical(abstract string) string {
	if target, ok := r.aliases[abstract]; ok {
		return target
	}
	return abstract
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// Rebinding registers a callback fired whenever an abstract is re-bound.
func (r *Registry) Rebinding(abstract string, cb func(any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reboundCallbacks[abstract] = append(r.reboundCallbacks[abstract], cb)
}

// AfterResolving registers a callback fired after any factory runs.
func (r *Registry) AfterResolving(cb func(abstract string, instance any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterResolving = append(r.afterResolving, cb)
}

func (r *Registry) hasRebound(abstract string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.reboundCallbacks[abstract]) > 0
}

func (r *Registry) fireRebound(abstract string, instance any) {
	r.mu.RLock()
	cbs := append(([]func(any))(nil), r.reboundCallbacks[abstract]...)
	r.mu.RUnlock()
	for _, cb := range cbs {
		cb(instance)
	}
}

func (r *Registry) fireAfterResolving(abstract string, instance any) {
	r.mu.RLock()
	cbs := append(([]func(string, any))(nil), r.afterResolving...)
	r.mu.RUnlock()
	for _, cb := range cbs {
		cb(abstract, instance)
	}
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// MakeAs resolves an abstract and type-asserts the result.
//
//	cfg, err := container.MakeAs[*config.Config](r, "config")
func MakeAs[T any](r *Registry, abstract string) (T, error) {
	var zero T
	instance, err := r.Make(abstract)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("container: [%s] resolved to %T, not %T", abstract, instance, zero)
	}
	return typed, nil
}

// MustMake is like MakeAs but panics on error. Use it where a missing
// binding is a wiring bug, such as inside provider Boot methods.
func MustMake[T any](r *Registry, abstract string) T {
	typed, err := MakeAs[T](r, abstract)
	if err != nil {
		panic(err)
	}
	return typed
}

// ── keyed mutex ───────────────────────────────────────────────────────────────

// keyedMutex hands out one mutex per key. The zero value is ready to use.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Lock locks the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
