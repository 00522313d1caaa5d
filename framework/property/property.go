// Package property sets named properties on built beans.
package property

import (
	"errors"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

// ErrNoSuchProperty is returned when a bean has neither a setter nor a
// settable field for a property name.
var ErrNoSuchProperty = errors.New("no such property")

// ErrPanic wraps a panic raised while setting a property.
var ErrPanic = errors.New("panic while setting property")

// Accessor discovers and sets bean properties.
type Accessor interface {
	// Type reports the Go type the property accepts.
	Type(bean any, name string) (reflect.Type, error)
	// Set stores value, which must be assignable to Type.
	Set(bean any, name string, value reflect.Value) error
}

// Reflective is the default Accessor. For a property "friend" it uses, in
// order, a method SetFriend(T) (optionally returning error), then an
// exported field tagged `bean:"friend"`, then an exported field Friend.
// Fields require a pointer to a struct.
type Reflective struct{}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Type implements Accessor.
func (Reflective) Type(bean any, name string) (reflect.Type, error) {
	if m, ok := setter(bean, name); ok {
		return m.Type().In(0), nil
	}
	f, err := field(bean, name)
	if err != nil {
		return nil, err
	}
	return f.Type(), nil
}

// Set implements Accessor.
func (Reflective) Set(bean any, name string, value reflect.Value) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("set %s: %w: %v", name, ErrPanic, rec)
		}
	}()
	if m, ok := setter(bean, name); ok {
		out := m.Call([]reflect.Value{value})
		if len(out) == 1 && !out[0].IsNil() {
			return fmt.Errorf("set %s: %w", name, out[0].Interface().(error))
		}
		return nil
	}
	f, err := field(bean, name)
	if err != nil {
		return err
	}
	f.Set(value)
	return nil
}

func setter(bean any, name string) (reflect.Value, bool) {
	m := reflect.ValueOf(bean).MethodByName("Set" + exported(name))
	if !m.IsValid() {
		return reflect.Value{}, false
	}
	mt := m.Type()
	if mt.NumIn() != 1 {
		return reflect.Value{}, false
	}
	switch {
	case mt.NumOut() == 0:
	case mt.NumOut() == 1 && mt.Out(0) == errorType:
	default:
		return reflect.Value{}, false
	}
	return m, true
}

func field(bean any, name string) (reflect.Value, error) {
	rv := reflect.ValueOf(bean)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%T.%s: %w", bean, name, ErrNoSuchProperty)
	}
	sv := rv.Elem()
	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		if tag := st.Field(i).Tag.Get("bean"); tag == name && st.Field(i).IsExported() {
			return sv.Field(i), nil
		}
	}
	sf, ok := st.FieldByName(exported(name))
	if !ok || !sf.IsExported() {
		return reflect.Value{}, fmt.Errorf("%T.%s: %w", bean, name, ErrNoSuchProperty)
	}
	return sv.FieldByIndex(sf.Index), nil
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
