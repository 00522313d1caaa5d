// Package lifecycle validates and invokes the init and destroy methods
// named by bean declarations.
package lifecycle

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNoSuchMethod means the bean has no exported method of that name.
	ErrNoSuchMethod = errors.New("no such method")
	// ErrSignature means the method exists but is not func() or func() error.
	ErrSignature = errors.New("lifecycle method must take no arguments and return nothing or an error")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Invoker runs named lifecycle methods.
type Invoker interface {
	Validate(bean any, method string) error
	Invoke(bean any, method string) error
}

// Reflective is the default Invoker, resolving methods by name on the
// bean's method set.
type Reflective struct{}

// Validate implements Invoker.
func (Reflective) Validate(bean any, method string) error {
	_, err := lookup(bean, method)
	return err
}

// Invoke implements Invoker. A panic inside the method is returned as an
// error.
func (Reflective) Invoke(bean any, method string) (err error) {
	m, err := lookup(bean, method)
	if err != nil {
		return err
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%T.%s: panic: %v", bean, method, rec)
		}
	}()
	out := m.Call(nil)
	if len(out) == 1 && !out[0].IsNil() {
		return fmt.Errorf("%T.%s: %w", bean, method, out[0].Interface().(error))
	}
	return nil
}

func lookup(bean any, method string) (reflect.Value, error) {
	if bean == nil {
		return reflect.Value{}, fmt.Errorf("<nil>.%s: %w", method, ErrNoSuchMethod)
	}
	m := reflect.ValueOf(bean).MethodByName(method)
	if !m.IsValid() {
		return reflect.Value{}, fmt.Errorf("%T.%s: %w", bean, method, ErrNoSuchMethod)
	}
	mt := m.Type()
	if mt.NumIn() != 0 || mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorType) {
		return reflect.Value{}, fmt.Errorf("%T.%s: %w", bean, method, ErrSignature)
	}
	return m, nil
}
