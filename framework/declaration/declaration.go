// Package declaration holds the passive bean declaration model produced by
// the parser and consumed by the builder and the bean factories.
//
// Declarations are created once from a declarations source and are treated
// as read-only afterwards.
package declaration

import "strings"

// Scope controls how many instances a declaration yields.
type Scope int

const (
	// Prototype is the default scope: a fresh instance per request.
	Prototype Scope = iota

	// Singleton means one shared instance cached by the container.
	Singleton
)

// String returns the declarations-source spelling of the scope.
func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	default:
		return "prototype"
	}
}

// ParseScope maps source text to a Scope. Empty and unrecognised text both
// yield Prototype.
func ParseScope(text string) Scope {
	if strings.EqualFold(strings.TrimSpace(text), "singleton") {
		return Singleton
	}
	return Prototype
}

// Node is the closed set of declaration kinds a builder can visit:
// *BeanDeclaration, *ListenerDeclaration and *PropertyDeclaration.
type Node interface {
	declarationNode()
}

// InvocationArgument is one constructor (or factory method) argument.
// Either RefID or the literal triple is meaningful; RefID wins when both are
// set.
type InvocationArgument struct {
	Type          string
	Value         string
	FormatPattern string
	RefID         string
}

// IsReference reports whether the argument resolves through another bean.
func (a InvocationArgument) IsReference() bool { return a.RefID != "" }

// PropertyDeclaration is one settable property of a built bean.
type PropertyDeclaration struct {
	Name          string
	Value         string
	FormatPattern string
	RefID         string

	owner *BeanDeclaration
}

func (*PropertyDeclaration) declarationNode() {}

// IsReference reports whether the value resolves through another bean.
func (p *PropertyDeclaration) IsReference() bool { return p.RefID != "" }

// Owner returns the declaring bean. It is kept for diagnostics only.
func (p *PropertyDeclaration) Owner() *BeanDeclaration { return p.owner }

// ListenerDeclaration describes an event listener attached to a built bean.
type ListenerDeclaration struct {
	ClassName string
	Scope     Scope
	Arguments []InvocationArgument

	// Properties scopes registration to the named properties. Empty means
	// the listener is registered for the whole bean.
	Properties []string
}

func (*ListenerDeclaration) declarationNode() {}

// IsBeanWide reports whether the listener is registered for the whole bean.
func (l *ListenerDeclaration) IsBeanWide() bool { return len(l.Properties) == 0 }

// AddProperty appends a property name, ignoring duplicates and blanks.
func (l *ListenerDeclaration) AddProperty(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, p := range l.Properties {
		if p == name {
			return
		}
	}
	l.Properties = append(l.Properties, name)
}

// BeanDeclaration describes one constructible unit.
type BeanDeclaration struct {
	id string

	Aliases       []string
	ClassName     string
	Scope         Scope
	LazyInit      bool
	InitMethod    string
	DestroyMethod string

	Arguments  []InvocationArgument
	Listeners  []*ListenerDeclaration
	Properties []*PropertyDeclaration
}

func (*BeanDeclaration) declarationNode() {}

// NewBean creates a prototype-scoped declaration. The id cannot be changed
// afterwards.
func NewBean(id, className string) *BeanDeclaration {
	return &BeanDeclaration{id: id, ClassName: className}
}

// ID returns the unique bean identifier.
func (b *BeanDeclaration) ID() string { return b.id }

// Names returns the id followed by the aliases.
func (b *BeanDeclaration) Names() []string {
	out := make([]string, 0, len(b.Aliases)+1)
	out = append(out, b.id)
	return append(out, b.Aliases...)
}

// IsSingleton reports whether the bean is singleton-scoped.
func (b *BeanDeclaration) IsSingleton() bool { return b.Scope == Singleton }

// IsEagerSingleton reports whether the bean is built during container
// initialisation.
func (b *BeanDeclaration) IsEagerSingleton() bool { return b.Scope == Singleton && !b.LazyInit }

// AddArgument appends a constructor argument.
func (b *BeanDeclaration) AddArgument(arg InvocationArgument) {
	b.Arguments = append(b.Arguments, arg)
}

// AddListener appends a listener declaration.
func (b *BeanDeclaration) AddListener(l *ListenerDeclaration) {
	b.Listeners = append(b.Listeners, l)
}

// AddProperty appends p and records b as its owner.
func (b *BeanDeclaration) AddProperty(p *PropertyDeclaration) *PropertyDeclaration {
	p.owner = b
	b.Properties = append(b.Properties, p)
	return p
}

// Property returns the first property declared under name.
func (b *BeanDeclaration) Property(name string) (*PropertyDeclaration, bool) {
	for _, p := range b.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}
