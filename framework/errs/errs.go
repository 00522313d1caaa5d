// Package errs defines the error taxonomy shared by the parser, the builder
// and the bean factories.
//
// Every error carries a Kind. Kinds are themselves errors so callers can
// branch with errors.Is:
//
//	if errors.Is(err, errs.BeanNotFound) { ... }
package errs

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind categorises a failure.
type Kind string

// Error implements the error interface so a Kind can be used as an
// errors.Is target.
func (k Kind) Error() string { return string(k) }

const (
	// Configuration marks a malformed or incomplete declaration: a missing
	// required attribute, a dangling refid, an unknown init/destroy method.
	Configuration Kind = "configuration error"

	// BeanNotFound marks a lookup for an id or alias with no declaration.
	BeanNotFound Kind = "bean not found"

	// TypeNotFound marks a declared type name that the type registry cannot
	// resolve.
	TypeNotFound Kind = "bean type not found"

	// System marks an unexpected, fatal condition (unusable container,
	// unresolvable type during a metadata lookup).
	System Kind = "system error"

	// Instantiation marks a failure while constructing a well-declared bean.
	Instantiation Kind = "bean instantiation failed"

	// Parsing marks an unreadable or malformed declarations source.
	Parsing Kind = "parsing error"

	// NoStaticInstance marks a singleton listener type that offers neither a
	// factory method nor an INSTANCE field.
	NoStaticInstance Kind = "no static instance field"

	// IllegalAccess marks an INSTANCE field that exists but cannot be read.
	IllegalAccess Kind = "illegal access"
)

// Error is the concrete error value returned across the module.
type Error struct {
	Kind Kind

	// Bean is the offending bean id, if known.
	Bean string
	// Class is the offending type name, if known.
	Class string
	// Property is the offending property name, if any.
	Property string
	// Position is the 1-based constructor argument position, or 0.
	Position int
	// Source names the declarations source for parsing errors.
	Source string

	Msg string
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("beans: ")
	b.WriteString(string(e.Kind))
	if e.Bean != "" {
		b.WriteString(": bean " + strconv.Quote(e.Bean))
	}
	if e.Class != "" {
		b.WriteString(": type " + strconv.Quote(e.Class))
	}
	if e.Source != "" {
		b.WriteString(": source " + strconv.Quote(e.Source))
	}
	if e.Msg != "" {
		b.WriteString(": " + e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Configurationf builds a configuration error for bean.
func Configurationf(bean, format string, args ...any) *Error {
	return &Error{Kind: Configuration, Bean: bean, Msg: fmt.Sprintf(format, args...)}
}

// DanglingArgument reports a constructor argument whose refid names no bean.
func DanglingArgument(bean string, position int, ref string) *Error {
	return &Error{
		Kind:     Configuration,
		Bean:     bean,
		Position: position,
		Msg:      fmt.Sprintf("constructor-arg %d references unknown bean %q", position, ref),
	}
}

// DanglingListenerArgument reports a listener constructor argument whose
// refid names no bean.
func DanglingListenerArgument(bean, listener string, position int, ref string) *Error {
	return &Error{
		Kind:     Configuration,
		Bean:     bean,
		Class:    listener,
		Position: position,
		Msg:      fmt.Sprintf("listener constructor-arg %d references unknown bean %q", position, ref),
	}
}

// DanglingProperty reports a property whose refid names no bean.
func DanglingProperty(bean, property, ref string) *Error {
	return &Error{
		Kind:     Configuration,
		Bean:     bean,
		Property: property,
		Msg:      fmt.Sprintf("property %q references unknown bean %q", property, ref),
	}
}

// NotFound reports an id or alias without a declaration.
func NotFound(id string) *Error {
	return &Error{Kind: BeanNotFound, Bean: id}
}

// UnknownType reports a type name the registry cannot resolve.
func UnknownType(class, bean string) *Error {
	return &Error{Kind: TypeNotFound, Bean: bean, Class: class}
}

// Systemf builds a system error wrapping cause (which may be nil).
func Systemf(cause error, format string, args ...any) *Error {
	return &Error{Kind: System, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// InstantiationFailed reports a failed construction of class.
func InstantiationFailed(class string, cause error) *Error {
	return &Error{Kind: Instantiation, Class: class, Err: cause}
}

// ParseFailed reports an unreadable or malformed declarations source.
func ParseFailed(source string, cause error) *Error {
	return &Error{Kind: Parsing, Source: source, Err: cause}
}

// MissingStaticInstance reports a listener type with no static instance.
func MissingStaticInstance(class string) *Error {
	return &Error{
		Kind:  NoStaticInstance,
		Class: class,
		Msg:   "type has neither a factory method nor an INSTANCE field",
	}
}

// AccessDenied reports an unreadable INSTANCE field of class.
func AccessDenied(class string, cause error) *Error {
	return &Error{Kind: IllegalAccess, Class: class, Err: cause}
}
