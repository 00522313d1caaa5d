package container

import (
	"fmt"
	"reflect"

	"github.com/km-arc/go-beans/framework/declaration"
	"github.com/km-arc/go-beans/framework/errs"
)

// BeanFactory hands out beans by id or alias.
//
// Lookups of unknown names fail with an error matching errs.BeanNotFound;
// ContainsBean never fails.
type BeanFactory interface {
	// GetBean returns the bean named id, building it if needed.
	GetBean(id string) (any, error)
	// GetBeanWith is like GetBean but constructs with args instead of
	// the declared constructor arguments. A cached singleton is returned
	// as-is.
	GetBeanWith(id string, args ...any) (any, error)
	// GetBeanTyped is like GetBeanWith with a declared type name per
	// argument.
	GetBeanTyped(id string, argTypes []string, args []any) (any, error)
	// Aliases returns the declared alias list of the bean.
	Aliases(id string) ([]string, error)
	// Scope returns the declared scope of the bean.
	Scope(id string) (declaration.Scope, error)
	// Type returns the Go type the bean is built as.
	Type(id string) (reflect.Type, error)
	// ContainsBean reports whether id names a bean by id or alias.
	ContainsBean(id string) bool
}

// Resolve fetches a bean and type-asserts it.
//
//	clock, err := container.Resolve[*Clock](factory, "clock")
func Resolve[T any](f BeanFactory, id string) (T, error) {
	var zero T
	bean, err := f.GetBean(id)
	if err != nil {
		return zero, err
	}
	typed, ok := bean.(T)
	if !ok {
		return zero, &errs.Error{
			Kind: errs.System,
			Bean: id,
			Msg:  fmt.Sprintf("bean is %T, not %s", bean, reflect.TypeOf((*T)(nil)).Elem()),
		}
	}
	return typed, nil
}
