// Package types maps declared type names to constructible Go types.
//
// Go cannot load a type from its name at run time, so every type a
// declarations source refers to is registered up front together with its
// constructors and, for listener types, its static accessors:
//
//	reg := types.NewRegistry()
//	reg.MustRegister("example.MockBeanImpl", (*MockBeanImpl)(nil),
//	    types.WithConstructor(NewMockBean),
//	)
package types

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Option configures a registered type.
type Option func(*Type)

// WithConstructor adds a constructor function. It must return T or
// (T, error). Constructors are tried in registration order.
func WithConstructor(fn any) Option {
	return func(t *Type) {
		t.ctors = append(t.ctors, reflect.ValueOf(fn))
	}
}

// WithStaticMethod registers a named package-level function acting as a
// static method of the type, typically a GetInstance accessor.
func WithStaticMethod(name string, fn any) Option {
	return func(t *Type) {
		t.methods[name] = reflect.ValueOf(fn)
	}
}

// WithStaticField registers a pointer to a package-level variable acting
// as a static field of the type, typically INSTANCE.
func WithStaticField(name string, ptr any) Option {
	return func(t *Type) {
		t.fields[name] = reflect.ValueOf(ptr)
	}
}

// Type is a constructible handle for a registered name.
type Type struct {
	reg     *Registry
	name    string
	rtype   reflect.Type
	ctors   []reflect.Value
	methods map[string]reflect.Value
	fields  map[string]reflect.Value
}

// Name returns the registered name.
func (t *Type) Name() string { return t.name }

// Type returns the Go type produced by default construction. Struct types
// are normalised to pointers.
func (t *Type) Type() reflect.Type { return t.rtype }

// New constructs an instance. With no arguments and no nullary constructor
// the zero value is returned (a new pointer for struct types).
func (t *Type) New(args ...Argument) (any, error) {
	if len(args) == 0 && !hasArity(t.ctors, 0) {
		return t.zero(), nil
	}
	return t.reg.invoke(t.name, "constructor", t.ctors, args)
}

// HasStaticMethod reports whether a static method is registered under name.
func (t *Type) HasStaticMethod(name string) bool {
	_, ok := t.methods[name]
	return ok
}

// CallStatic invokes the static method registered under name.
func (t *Type) CallStatic(name string, args ...Argument) (any, error) {
	fn, ok := t.methods[name]
	if !ok {
		return nil, fmt.Errorf("%s has no static method %q", t.name, name)
	}
	return t.reg.invoke(t.name, "static method "+name, []reflect.Value{fn}, args)
}

// HasStaticField reports whether a static field is registered under name.
func (t *Type) HasStaticField(name string) bool {
	_, ok := t.fields[name]
	return ok
}

// ErrUnreadableField is returned by StaticField when the registered
// variable holds no value.
var ErrUnreadableField = errors.New("static field holds no value")

// StaticField reads the static field registered under name. found is false
// when no such field exists.
func (t *Type) StaticField(name string) (value any, found bool, err error) {
	ptr, ok := t.fields[name]
	if !ok {
		return nil, false, nil
	}
	v := ptr.Elem()
	if isNillable(v.Kind()) && v.IsNil() {
		return nil, true, fmt.Errorf("%s.%s: %w", t.name, name, ErrUnreadableField)
	}
	return v.Interface(), true, nil
}

func (t *Type) zero() any {
	if t.rtype.Kind() == reflect.Pointer {
		return reflect.New(t.rtype.Elem()).Interface()
	}
	return reflect.New(t.rtype).Elem().Interface()
}

// Registry holds named types. It is safe for concurrent use; registration
// normally happens once at startup.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// Register adds a type under name. sample is a value or nil pointer of the
// type, e.g. (*Service)(nil) or Service{}.
func (r *Registry) Register(name string, sample any, opts ...Option) (*Type, error) {
	if name == "" {
		return nil, errors.New("types: name cannot be empty")
	}
	if sample == nil {
		return nil, fmt.Errorf("types: %s: sample cannot be nil", name)
	}

	rt, ok := sample.(reflect.Type)
	if !ok {
		rt = reflect.TypeOf(sample)
	}
	if rt.Kind() == reflect.Struct {
		rt = reflect.PointerTo(rt)
	}

	t := &Type{
		reg:     r,
		name:    name,
		rtype:   rt,
		methods: make(map[string]reflect.Value),
		fields:  make(map[string]reflect.Value),
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.check(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[name]; exists {
		return nil, fmt.Errorf("types: %s: already registered", name)
	}
	r.types[name] = t
	return t, nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, sample any, opts ...Option) *Type {
	t, err := r.Register(name, sample, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Resolve maps a type name used in an argument's type attribute to a Go
// type. Built-in names (string, int, time.Duration, ...) are tried before
// registered names.
func (r *Registry) Resolve(name string) (reflect.Type, error) {
	if rt, ok := builtins[name]; ok {
		return rt, nil
	}
	if t, ok := r.Lookup(name); ok {
		return t.rtype, nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

// Names lists the registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for n := range r.types {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (t *Type) check() error {
	for _, fn := range t.ctors {
		if err := checkFunc(fn); err != nil {
			return fmt.Errorf("types: %s: constructor: %w", t.name, err)
		}
	}
	for name, fn := range t.methods {
		if err := checkFunc(fn); err != nil {
			return fmt.Errorf("types: %s: static method %s: %w", t.name, name, err)
		}
	}
	for name, ptr := range t.fields {
		if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
			return fmt.Errorf("types: %s: static field %s must be a non-nil pointer", t.name, name)
		}
	}
	return nil
}

func checkFunc(fn reflect.Value) error {
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return errors.New("must be a function")
	}
	ft := fn.Type()
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1).Implements(errorType):
	default:
		return errors.New("must return (T) or (T, error)")
	}
	return nil
}

func hasArity(fns []reflect.Value, n int) bool {
	for _, fn := range fns {
		if fn.Type().NumIn() == n {
			return true
		}
	}
	return false
}

func isNillable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}
