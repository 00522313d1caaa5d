// Package builder turns declarations into live beans.
//
// A Builder visits one bean declaration and, through it, the bean's
// listeners and properties. References to other beans are resolved
// through a BeanResolver, normally the container that owns the builder.
//
//	b := builder.New(factory, registry, builder.WithArguments("override"))
//	if err := b.Visit(decl); err != nil {
//	    return err
//	}
//	bean := b.Bean()
package builder

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/km-arc/go-beans/framework/declaration"
	"github.com/km-arc/go-beans/framework/errs"
	"github.com/km-arc/go-beans/framework/event"
	"github.com/km-arc/go-beans/framework/property"
	"github.com/km-arc/go-beans/framework/types"
)

// DefaultFactoryMethod is the static method tried first when resolving a
// listener instance.
const DefaultFactoryMethod = "GetInstance"

// InstanceField is the static field tried when no factory method exists.
const InstanceField = "INSTANCE"

// BeanResolver resolves a bean id to a live instance.
type BeanResolver interface {
	GetBean(id string) (any, error)
}

// Option configures a Builder.
type Option func(*Builder)

// WithArguments supplies constructor arguments that replace the declared
// ones.
func WithArguments(args ...any) Option {
	return func(b *Builder) {
		b.overrides = make([]types.Argument, len(args))
		for i, a := range args {
			b.overrides[i] = types.Value(a)
		}
	}
}

// WithTypedArguments is like WithArguments with a declared type name per
// argument. An empty or missing name leaves the argument untyped.
func WithTypedArguments(typeNames []string, args []any) Option {
	return func(b *Builder) {
		b.overrides = make([]types.Argument, len(args))
		for i, a := range args {
			var name string
			if i < len(typeNames) {
				name = typeNames[i]
			}
			b.overrides[i] = types.TypedValue(name, a)
		}
	}
}

// WithPropertyAccessor replaces the reflective property accessor.
func WithPropertyAccessor(a property.Accessor) Option {
	return func(b *Builder) { b.accessor = a }
}

// WithFactoryMethod overrides the listener factory method name.
func WithFactoryMethod(name string) Option {
	return func(b *Builder) { b.factoryMethod = name }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// Builder builds one bean at a time. It is not safe for concurrent use.
type Builder struct {
	resolver      BeanResolver
	registry      *types.Registry
	accessor      property.Accessor
	factoryMethod string
	overrides     []types.Argument
	log           *zap.Logger

	decl *declaration.BeanDeclaration
	bean any
}

// New returns a Builder resolving types through registry and references
// through resolver.
func New(resolver BeanResolver, registry *types.Registry, opts ...Option) *Builder {
	b := &Builder{
		resolver:      resolver,
		registry:      registry,
		accessor:      property.Reflective{},
		factoryMethod: DefaultFactoryMethod,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build is a shorthand for New followed by Visit(decl) and Bean.
func Build(resolver BeanResolver, registry *types.Registry, decl *declaration.BeanDeclaration, opts ...Option) (any, error) {
	b := New(resolver, registry, opts...)
	if err := b.Visit(decl); err != nil {
		return nil, err
	}
	return b.Bean(), nil
}

// Bean returns the most recently constructed bean.
func (b *Builder) Bean() any { return b.bean }

// Visit handles a declaration node. Values of any other type are ignored.
func (b *Builder) Visit(node any) error {
	switch n := node.(type) {
	case *declaration.BeanDeclaration:
		return b.visitBean(n)
	case *declaration.ListenerDeclaration:
		return b.visitListener(n)
	case *declaration.PropertyDeclaration:
		return b.visitProperty(n)
	default:
		return nil
	}
}

func (b *Builder) visitBean(d *declaration.BeanDeclaration) error {
	typ, ok := b.registry.Lookup(d.ClassName)
	if !ok {
		return errs.UnknownType(d.ClassName, d.ID())
	}

	args := b.overrides
	if len(args) == 0 {
		var err error
		if args, err = b.arguments(d.ID(), "", d.Arguments); err != nil {
			return err
		}
	}

	inst, err := typ.New(args...)
	if err != nil {
		e := errs.InstantiationFailed(d.ClassName, err)
		e.Bean = d.ID()
		return e
	}
	b.decl, b.bean = d, inst
	b.log.Debug("bean constructed",
		zap.String("bean", d.ID()),
		zap.String("class", d.ClassName),
		zap.Int("args", len(args)),
	)

	for _, l := range d.Listeners {
		if err := b.Visit(l); err != nil {
			return err
		}
	}
	for _, p := range d.Properties {
		if err := b.Visit(p); err != nil {
			return err
		}
	}
	return nil
}

// arguments resolves declared arguments of bean, or of its listener when
// listener is set; a refid wins over the literal.
func (b *Builder) arguments(bean, listener string, decl []declaration.InvocationArgument) ([]types.Argument, error) {
	out := make([]types.Argument, len(decl))
	for i, a := range decl {
		if a.IsReference() {
			v, err := b.resolver.GetBean(a.RefID)
			if err != nil {
				if errors.Is(err, errs.BeanNotFound) {
					if listener != "" {
						return nil, errs.DanglingListenerArgument(bean, listener, i+1, a.RefID)
					}
					return nil, errs.DanglingArgument(bean, i+1, a.RefID)
				}
				return nil, fmt.Errorf("bean %q: constructor-arg %d: %w", bean, i+1, err)
			}
			out[i] = types.TypedValue(a.Type, v)
			continue
		}
		out[i] = types.Literal(a.Type, a.Value, a.FormatPattern)
	}
	return out, nil
}

func (b *Builder) visitListener(l *declaration.ListenerDeclaration) error {
	if b.bean == nil {
		return errs.Configurationf("", "listener %s visited before any bean was built", l.ClassName)
	}
	typ, ok := b.registry.Lookup(l.ClassName)
	if !ok {
		return errs.UnknownType(l.ClassName, b.decl.ID())
	}

	var (
		inst  any
		found bool
		err   error
	)
	for _, resolve := range b.listenerChain() {
		if inst, found, err = resolve(typ, l); err != nil {
			return err
		}
		if found {
			break
		}
	}

	n, err := event.Attach(b.bean, inst, l.Properties)
	if err != nil {
		return &errs.Error{
			Kind:  errs.Configuration,
			Bean:  b.decl.ID(),
			Class: l.ClassName,
			Msg:   "cannot attach listener",
			Err:   err,
		}
	}
	b.log.Debug("listener attached",
		zap.String("bean", b.decl.ID()),
		zap.String("listener", l.ClassName),
		zap.Strings("properties", l.Properties),
		zap.Int("registrations", n),
	)
	return nil
}

func (b *Builder) visitProperty(p *declaration.PropertyDeclaration) error {
	if b.bean == nil {
		return errs.Configurationf("", "property %q visited before any bean was built", p.Name)
	}
	fail := func(kind errs.Kind, msg string, cause error) error {
		return &errs.Error{Kind: kind, Bean: b.decl.ID(), Property: p.Name, Msg: msg, Err: cause}
	}

	target, err := b.accessor.Type(b.bean, p.Name)
	if err != nil {
		return fail(errs.Configuration, "unknown property", err)
	}

	var v reflect.Value
	if p.IsReference() {
		ref, err := b.resolver.GetBean(p.RefID)
		if err != nil {
			if errors.Is(err, errs.BeanNotFound) {
				return errs.DanglingProperty(b.decl.ID(), p.Name, p.RefID)
			}
			return fmt.Errorf("bean %q: property %q: %w", b.decl.ID(), p.Name, err)
		}
		if v, err = types.Assign(ref, target); err != nil {
			return fail(errs.Configuration, "referenced bean "+p.RefID+" does not fit", err)
		}
	} else if v, err = types.Convert(p.Value, p.FormatPattern, target); err != nil {
		return fail(errs.Configuration, "cannot convert value", err)
	}

	if err := b.accessor.Set(b.bean, p.Name, v); err != nil {
		return fail(errs.Instantiation, "cannot set property", err)
	}
	return nil
}
