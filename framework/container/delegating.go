package container

import (
	"reflect"

	"github.com/km-arc/go-beans/framework/declaration"
	"github.com/km-arc/go-beans/framework/errs"
)

// DelegatingFactory is a BeanFactory over an existing Registry. Bindings
// play the role of bean declarations: singleton bindings and instances
// have singleton scope, plain bindings prototype scope.
type DelegatingFactory struct {
	registry *Registry
}

var _ BeanFactory = (*DelegatingFactory)(nil)

// NewDelegatingFactory wraps r.
func NewDelegatingFactory(r *Registry) *DelegatingFactory {
	return &DelegatingFactory{registry: r}
}

// GetBean implements BeanFactory.
func (f *DelegatingFactory) GetBean(id string) (any, error) {
	if !f.registry.Bound(id) {
		return nil, errs.NotFound(id)
	}
	return f.registry.Make(id)
}

// GetBeanWith implements BeanFactory. Registry factories take no
// arguments, so any override is a configuration error.
func (f *DelegatingFactory) GetBeanWith(id string, args ...any) (any, error) {
	if len(args) == 0 {
		return f.GetBean(id)
	}
	if !f.registry.Bound(id) {
		return nil, errs.NotFound(id)
	}
	return nil, errs.Configurationf(id, "registry bindings do not accept constructor arguments")
}

// GetBeanTyped implements BeanFactory; see GetBeanWith.
func (f *DelegatingFactory) GetBeanTyped(id string, _ []string, args []any) (any, error) {
	return f.GetBeanWith(id, args...)
}

// Aliases implements BeanFactory.
func (f *DelegatingFactory) Aliases(id string) ([]string, error) {
	if !f.registry.Bound(id) {
		return nil, errs.NotFound(id)
	}
	return f.registry.AliasesOf(id), nil
}

// Scope implements BeanFactory.
func (f *DelegatingFactory) Scope(id string) (declaration.Scope, error) {
	if !f.registry.Bound(id) {
		return declaration.Prototype, errs.NotFound(id)
	}
	if f.registry.IsShared(id) {
		return declaration.Singleton, nil
	}
	return declaration.Prototype, nil
}

// Type implements BeanFactory. The registry records no types, so the
// bean is resolved and its dynamic type returned; a failing factory is a
// system error.
func (f *DelegatingFactory) Type(id string) (reflect.Type, error) {
	if !f.registry.Bound(id) {
		return nil, errs.NotFound(id)
	}
	inst, err := f.registry.Make(id)
	if err != nil {
		return nil, errs.Systemf(err, "cannot resolve type of %q", id)
	}
	return reflect.TypeOf(inst), nil
}

// ContainsBean implements BeanFactory.
func (f *DelegatingFactory) ContainsBean(id string) bool {
	return f.registry.Bound(id)
}
