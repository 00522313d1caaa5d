package builder

import (
	"github.com/km-arc/go-beans/framework/declaration"
	"github.com/km-arc/go-beans/framework/errs"
	"github.com/km-arc/go-beans/framework/types"
)

// instanceResolver is one step of listener instance lookup. found reports
// whether the step produced the instance; later steps run only when it
// did not.
type instanceResolver func(typ *types.Type, l *declaration.ListenerDeclaration) (inst any, found bool, err error)

// listenerChain is tried in order: factory method, INSTANCE field,
// constructor.
func (b *Builder) listenerChain() []instanceResolver {
	return []instanceResolver{
		b.fromFactoryMethod,
		fromInstanceField,
		b.fromConstructor,
	}
}

func (b *Builder) fromFactoryMethod(typ *types.Type, l *declaration.ListenerDeclaration) (any, bool, error) {
	if !typ.HasStaticMethod(b.factoryMethod) {
		return nil, false, nil
	}
	inst, err := typ.CallStatic(b.factoryMethod)
	if err != nil {
		return nil, true, errs.InstantiationFailed(l.ClassName, err)
	}
	return inst, true, nil
}

func fromInstanceField(typ *types.Type, l *declaration.ListenerDeclaration) (any, bool, error) {
	inst, found, err := typ.StaticField(InstanceField)
	if err != nil {
		return nil, true, errs.AccessDenied(l.ClassName, err)
	}
	return inst, found, nil
}

// fromConstructor builds a fresh listener. A singleton listener must come
// from a static accessor, so reaching this step for one is an error.
func (b *Builder) fromConstructor(typ *types.Type, l *declaration.ListenerDeclaration) (any, bool, error) {
	if l.Scope == declaration.Singleton {
		return nil, true, errs.MissingStaticInstance(l.ClassName)
	}
	args, err := b.arguments(b.decl.ID(), l.ClassName, l.Arguments)
	if err != nil {
		return nil, true, err
	}
	inst, err := typ.New(args...)
	if err != nil {
		return nil, true, errs.InstantiationFailed(l.ClassName, err)
	}
	return inst, true, nil
}
