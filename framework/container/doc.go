// Package container provides the bean factories and the string-keyed
// registry the application kernel is assembled from.
//
// # Bean factories
//
// BeanFactory is the lookup contract. Two implementations ship:
//
//   - DeclarativeFactory builds beans from a declarations source (XML by
//     default, YAML via WithParser("yaml")).
//   - DelegatingFactory exposes an existing Registry through the same
//     contract.
//
// # Declarative lifecycle
//
//  1. Create: f := container.NewDeclarativeFactory(types, container.WithDefinitions("beans.xml"))
//  2. Init: f.Init() parses once and builds eager singletons
//  3. Serve: f.GetBean("id"), container.Resolve[*Clock](f, "clock")
//  4. Destroy: f.Destroy() runs destroy methods, newest singleton first
//
// A failed Init leaves the factory unusable; every later call returns the
// same system error.
//
// # Registry
//
//	// Transient: new instance every Make()
//	r.Bind("clock", func(*container.Registry) (any, error) { return &Clock{}, nil })
//
//	// Singleton: created once, reused
//	r.Singleton("metrics", func(*container.Registry) (any, error) {
//	    return metrics.New("beans"), nil
//	})
//
//	// Pre-built value
//	r.Instance("config", cfg)
//
//	// Alias
//	r.Alias("metrics", "collector")
//
//	// Resolve
//	m, err := container.MakeAs[*metrics.Collector](r, "collector")
//
// # Service Providers
//
//	type BeansProvider struct{ container.BaseProvider }
//
//	func (p *BeansProvider) Register(r *container.Registry) { ... }
//	func (p *BeansProvider) Boot(r *container.Registry) error { ... }
//
//	providers := container.NewProviderRegistry(r)
//	providers.Register(&BeansProvider{})
//	providers.Boot()
//
// A provider whose IsDeferred returns true is registered only when one of
// its Provides() abstracts is first resolved.
package container
