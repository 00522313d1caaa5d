package container

import (
	"fmt"
	"sync"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider registers a group of related bindings.
//
// Register() is called when the provider is added. Boot() is called after
// ALL providers have been registered, making it safe to resolve other
// bindings inside Boot().
//
//	type BeansProvider struct{ container.BaseProvider }
//
//	func (p *BeansProvider) Register(r *container.Registry) {
//	    r.Singleton("beans", func(r *container.Registry) (any, error) {
//	        return container.NewDeclarativeFactory(container.MustMake[*types.Registry](r, "types")), nil
//	    })
//	}
//
//	func (p *BeansProvider) Boot(r *container.Registry) error {
//	    return container.MustMake[*container.DeclarativeFactory](r, "beans").Init()
//	}
type ServiceProvider interface {
	// Register binds services into the registry.
	// Do NOT resolve other bindings here; use Boot() for that.
	Register(r *Registry)

	// Boot is called after all providers are registered.
	// Safe to resolve and use any binding here.
	Boot(r *Registry) error

	// Provides returns the abstract keys this provider registers.
	// Used for deferred (lazy) provider loading.
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily,
	// only when one of its Provides() abstracts is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(r *container.Registry) { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Registry) error { return nil }
func (p *BaseProvider) Provides() []string     { return nil }
func (p *BaseProvider) IsDeferred() bool       { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
type ProviderRegistry struct {
	mu         sync.Mutex
	app        *Registry
	eager      []ServiceProvider
	loaded     map[ServiceProvider]bool // deferred providers already registered
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a provider registry bound to app.
func NewProviderRegistry(app *Registry) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		loaded:     make(map[ServiceProvider]bool),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register() method (unless
// deferred). A provider added after Boot() is booted immediately.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true
	booted := r.booted

	if provider.IsDeferred() {
		r.mu.Unlock()
		r.interceptDeferred(provider)
		return nil
	}
	r.eager = append(r.eager, provider)
	r.mu.Unlock()

	provider.Register(r.app)
	if booted {
		return bootProvider(provider, r.app)
	}
	return nil
}

// interceptDeferred binds a placeholder for each deferred abstract. The
// first Make() of any of them registers (and, after Boot, boots) the
// provider for real; its own bindings then replace the placeholders.
func (r *ProviderRegistry) interceptDeferred(provider ServiceProvider) {
	for _, abstract := range provider.Provides() {
		abs := abstract
		r.app.Bind(abs, func(app *Registry) (any, error) {
			if err := r.loadDeferred(provider); err != nil {
				return nil, err
			}
			return app.Make(abs)
		})
	}
}

func (r *ProviderRegistry) loadDeferred(provider ServiceProvider) error {
	r.mu.Lock()
	if r.loaded[provider] {
		r.mu.Unlock()
		return nil
	}
	r.loaded[provider] = true
	booted := r.booted
	r.mu.Unlock()

	provider.Register(r.app)
	if booted {
		return bootProvider(provider, r.app)
	}
	return nil
}

// Boot calls Boot() on all eager providers in registration order, stopping
// at the first failure. Later calls are no-ops.
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range providers {
		if err := bootProvider(provider, r.app); err != nil {
			return err
		}
	}
	return nil
}

func bootProvider(p ServiceProvider, app *Registry) error {
	if err := p.Boot(app); err != nil {
		return fmt.Errorf("boot %T: %w", p, err)
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}
