package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Argument is one argument of a constructor or static method call. It is
// either literal text converted to the parameter type, or a ready value
// such as a resolved bean reference.
type Argument struct {
	// TypeName, when set, names the declared argument type. The
	// parameter must accept that type.
	TypeName string
	Text     string
	Format   string

	value   any
	isValue bool
}

// Literal returns a text argument.
func Literal(typeName, text, format string) Argument {
	return Argument{TypeName: typeName, Text: text, Format: format}
}

// Value returns an argument carrying v.
func Value(v any) Argument {
	return Argument{value: v, isValue: true}
}

// TypedValue returns an argument carrying v with a declared type name.
func TypedValue(typeName string, v any) Argument {
	return Argument{TypeName: typeName, value: v, isValue: true}
}

// IsValue reports whether the argument carries a ready value.
func (a Argument) IsValue() bool { return a.isValue }

func (a Argument) String() string {
	var s string
	if a.isValue {
		s = fmt.Sprintf("%T", a.value)
	} else {
		s = fmt.Sprintf("%q", a.Text)
	}
	if a.TypeName != "" {
		s = a.TypeName + " " + s
	}
	return s
}

// bind produces a call argument of parameter type p.
func (r *Registry) bind(a Argument, p reflect.Type) (reflect.Value, error) {
	target := p
	if a.TypeName != "" {
		declared, err := r.Resolve(a.TypeName)
		if err != nil {
			return reflect.Value{}, err
		}
		if !declared.AssignableTo(p) && !(declared.Kind() == p.Kind() && declared.ConvertibleTo(p)) {
			return reflect.Value{}, fmt.Errorf("declared type %s does not fit parameter %s", a.TypeName, p)
		}
		target = declared
	}

	var (
		v   reflect.Value
		err error
	)
	if a.isValue {
		v, err = Assign(a.value, target)
	} else {
		v, err = Convert(a.Text, a.Format, target)
	}
	if err != nil {
		return reflect.Value{}, err
	}
	if target != p {
		return fit(v, p)
	}
	return v, nil
}

// invoke calls the first function whose arity matches and whose
// parameters accept every argument.
func (r *Registry) invoke(owner, what string, fns []reflect.Value, args []Argument) (any, error) {
	var lastErr error
	for _, fn := range fns {
		ft := fn.Type()
		if ft.IsVariadic() || ft.NumIn() != len(args) {
			continue
		}
		in := make([]reflect.Value, len(args))
		var bindErr error
		for i, a := range args {
			if in[i], bindErr = r.bind(a, ft.In(i)); bindErr != nil {
				bindErr = fmt.Errorf("argument %d: %w", i+1, bindErr)
				break
			}
		}
		if bindErr != nil {
			lastErr = bindErr
			continue
		}
		return call(fn, in)
	}

	desc := make([]string, len(args))
	for i, a := range args {
		desc[i] = a.String()
	}
	err := fmt.Errorf("no %s of %s accepts (%s)", what, owner, strings.Join(desc, ", "))
	if lastErr != nil {
		err = fmt.Errorf("%w: %w", err, lastErr)
	}
	return nil, err
}

// ErrPanic wraps a panic raised by a constructor or static method.
var ErrPanic = errors.New("panic during call")

func call(fn reflect.Value, in []reflect.Value) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrPanic, rec)
		}
	}()

	res := fn.Call(in)
	if len(res) == 2 && !res[1].IsNil() {
		return nil, res[1].Interface().(error)
	}
	return res[0].Interface(), nil
}
