package builder_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-beans/framework/builder"
	"github.com/km-arc/go-beans/framework/declaration"
	"github.com/km-arc/go-beans/framework/errs"
	"github.com/km-arc/go-beans/framework/event"
	"github.com/km-arc/go-beans/framework/property"
	"github.com/km-arc/go-beans/framework/types"
)

// ── fixtures ─────────────────────────────────────────────────────────────────

type mockBean struct {
	event.PropertyChangeSupport
	event.VetoableChangeSupport

	Value  string
	Age    int
	Since  time.Time
	Friend *mockBean
}

func newMockBean(v string) *mockBean { return &mockBean{Value: v} }

func (m *mockBean) SetMood(string) { panic("moody") }

type plainBean struct{ Name string }

type changeListener struct{ seen int }

func (c *changeListener) PropertyChange(event.PropertyChangeEvent) { c.seen++ }

type vetoListener struct{}

func (vetoListener) VetoableChange(event.PropertyChangeEvent) error { return nil }

var (
	sharedListener = &changeListener{}
	nilListener    *changeListener
)

func getShared() *changeListener { return sharedListener }

type resolverFunc func(id string) (any, error)

func (f resolverFunc) GetBean(id string) (any, error) { return f(id) }

func beans(m map[string]any) builder.BeanResolver {
	return resolverFunc(func(id string) (any, error) {
		if v, ok := m[id]; ok {
			return v, nil
		}
		return nil, errs.NotFound(id)
	})
}

func registry(t *testing.T) *types.Registry {
	t.Helper()
	reg := types.NewRegistry()
	reg.MustRegister("example.MockBean", (*mockBean)(nil), types.WithConstructor(newMockBean))
	reg.MustRegister("example.Plain", plainBean{})
	reg.MustRegister("example.ChangeListener", (*changeListener)(nil))
	reg.MustRegister("example.VetoListener", vetoListener{})
	reg.MustRegister("example.FactoryListener", (*changeListener)(nil),
		types.WithStaticMethod("GetInstance", getShared),
		types.WithStaticMethod("Shared", getShared),
	)
	reg.MustRegister("example.FieldListener", (*changeListener)(nil),
		types.WithStaticField("INSTANCE", &sharedListener),
	)
	reg.MustRegister("example.NilFieldListener", (*changeListener)(nil),
		types.WithStaticField("INSTANCE", &nilListener),
	)
	return reg
}

func mockDecl(id string) *declaration.BeanDeclaration {
	d := declaration.NewBean(id, "example.MockBean")
	d.AddArgument(declaration.InvocationArgument{Type: "string", Value: "test"})
	return d
}

func build(t *testing.T, d *declaration.BeanDeclaration, resolver builder.BeanResolver, opts ...builder.Option) (any, error) {
	t.Helper()
	if resolver == nil {
		resolver = beans(nil)
	}
	return builder.Build(resolver, registry(t), d, opts...)
}

// ── Beans ────────────────────────────────────────────────────────────────────

func TestBuild_MockBeanScenario(t *testing.T) {
	t.Parallel()

	v, err := build(t, mockDecl("mockBean"), nil)
	require.NoError(t, err)

	require.IsType(t, &mockBean{}, v)
	assert.Equal(t, "test", v.(*mockBean).Value)
}

func TestBuild_NoArgumentsUsesZeroConstruction(t *testing.T) {
	t.Parallel()

	v, err := build(t, declaration.NewBean("p", "example.Plain"), nil)
	require.NoError(t, err)
	assert.Equal(t, &plainBean{}, v)
}

func TestBuild_CallerArgumentsWin(t *testing.T) {
	t.Parallel()

	v, err := build(t, mockDecl("m"), nil, builder.WithArguments("override"))
	require.NoError(t, err)
	assert.Equal(t, "override", v.(*mockBean).Value)

	v, err = build(t, mockDecl("m"), nil, builder.WithTypedArguments([]string{"string"}, []any{"typed"}))
	require.NoError(t, err)
	assert.Equal(t, "typed", v.(*mockBean).Value)
}

func TestBuild_RefIDWinsOverLiteral(t *testing.T) {
	t.Parallel()

	d := declaration.NewBean("m", "example.MockBean")
	d.AddArgument(declaration.InvocationArgument{Value: "literal", RefID: "name"})

	v, err := build(t, d, beans(map[string]any{"name": "from-ref"}))
	require.NoError(t, err)
	assert.Equal(t, "from-ref", v.(*mockBean).Value)
}

func TestBuild_UnknownTypeNamesClassAndBean(t *testing.T) {
	t.Parallel()

	_, err := build(t, declaration.NewBean("ghost", "example.Missing"), nil)
	require.ErrorIs(t, err, errs.TypeNotFound)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "ghost", e.Bean)
	assert.Equal(t, "example.Missing", e.Class)
}

func TestBuild_InstantiationFailure(t *testing.T) {
	t.Parallel()

	d := declaration.NewBean("m", "example.MockBean")
	d.AddArgument(declaration.InvocationArgument{Value: "a"})
	d.AddArgument(declaration.InvocationArgument{Value: "b"})

	_, err := build(t, d, nil)
	require.ErrorIs(t, err, errs.Instantiation)
	assert.Contains(t, err.Error(), "example.MockBean")
}

func TestBuild_MissingReferenceIsConfigurationError(t *testing.T) {
	t.Parallel()

	listenerArg := mockDecl("m")
	l := listenerDecl("example.ChangeListener", declaration.Prototype)
	l.Arguments = []declaration.InvocationArgument{{Value: "x"}, {RefID: "nobody"}}
	listenerArg.AddListener(l)

	property := mockDecl("m")
	property.AddProperty(&declaration.PropertyDeclaration{Name: "friend", RefID: "nobody"})

	constructorArg := declaration.NewBean("m", "example.MockBean")
	constructorArg.AddArgument(declaration.InvocationArgument{RefID: "nobody"})

	cases := []struct {
		name     string
		decl     *declaration.BeanDeclaration
		class    string
		position int
		property string
	}{
		{"constructor argument", constructorArg, "", 1, ""},
		{"listener argument", listenerArg, "example.ChangeListener", 2, ""},
		{"property", property, "", 0, "friend"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := build(t, tc.decl, nil)
			require.ErrorIs(t, err, errs.Configuration)
			assert.NotErrorIs(t, err, errs.BeanNotFound)

			var e *errs.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, "m", e.Bean)
			assert.Equal(t, tc.class, e.Class)
			assert.Equal(t, tc.position, e.Position)
			assert.Equal(t, tc.property, e.Property)
			assert.Contains(t, err.Error(), `"nobody"`)
		})
	}
}

func TestBuild_FailedReferenceKeepsItsKind(t *testing.T) {
	t.Parallel()

	failing := resolverFunc(func(id string) (any, error) {
		return nil, errs.InstantiationFailed("example.Other", errors.New("boom"))
	})
	d := mockDecl("a")
	d.AddProperty(&declaration.PropertyDeclaration{Name: "friend", RefID: "other"})

	_, err := build(t, d, failing)
	require.ErrorIs(t, err, errs.Instantiation)
	assert.Contains(t, err.Error(), `bean "a"`)
	assert.Contains(t, err.Error(), `property "friend"`)
}

// ── Properties ───────────────────────────────────────────────────────────────

func TestBuild_FriendPropertyReference(t *testing.T) {
	t.Parallel()

	b := &mockBean{Value: "b"}
	d := mockDecl("a")
	d.AddProperty(&declaration.PropertyDeclaration{Name: "friend", RefID: "b", Value: "ignored"})

	v, err := build(t, d, beans(map[string]any{"b": b}))
	require.NoError(t, err)
	assert.Same(t, b, v.(*mockBean).Friend)
}

func TestBuild_LiteralProperties(t *testing.T) {
	t.Parallel()

	d := mockDecl("a")
	d.AddProperty(&declaration.PropertyDeclaration{Name: "age", Value: "1f", FormatPattern: "%x"})
	d.AddProperty(&declaration.PropertyDeclaration{Name: "since", Value: "2024-03-01", FormatPattern: "2006-01-02"})

	v, err := build(t, d, nil)
	require.NoError(t, err)

	m := v.(*mockBean)
	assert.Equal(t, 31, m.Age)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), m.Since)
}

func TestBuild_PropertyFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]*declaration.PropertyDeclaration{
		"unknown property": {Name: "colour", Value: "red"},
		"bad literal":      {Name: "age", Value: "old"},
		"ref does not fit": {Name: "age", RefID: "b"},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			d := mockDecl("a")
			d.AddProperty(p)

			_, err := build(t, d, beans(map[string]any{"b": &mockBean{}}))
			require.ErrorIs(t, err, errs.Configuration)

			var e *errs.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, "a", e.Bean)
			assert.Equal(t, p.Name, e.Property)
		})
	}
}

func TestBuild_PanickingSetterIsInstantiationError(t *testing.T) {
	t.Parallel()

	d := mockDecl("a")
	d.AddProperty(&declaration.PropertyDeclaration{Name: "mood", Value: "grim"})

	var err error
	require.NotPanics(t, func() { _, err = build(t, d, nil) })
	require.ErrorIs(t, err, errs.Instantiation)
	assert.ErrorIs(t, err, property.ErrPanic)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "mood", e.Property)
}

// ── Listeners ────────────────────────────────────────────────────────────────

func listenerDecl(class string, scope declaration.Scope, props ...string) *declaration.ListenerDeclaration {
	l := &declaration.ListenerDeclaration{ClassName: class, Scope: scope}
	for _, p := range props {
		l.AddProperty(p)
	}
	return l
}

func TestBuild_ListenerRegistrationCounts(t *testing.T) {
	t.Parallel()

	d := mockDecl("a")
	d.AddListener(listenerDecl("example.ChangeListener", declaration.Prototype, "p1", "p2"))
	d.AddListener(listenerDecl("example.VetoListener", declaration.Prototype))

	v, err := build(t, d, nil)
	require.NoError(t, err)

	m := v.(*mockBean)
	assert.Empty(t, m.PropertyChangeListeners(), "named listener never registered bean-wide")
	assert.Len(t, m.NamedPropertyChangeListeners("p1"), 1)
	assert.Len(t, m.NamedPropertyChangeListeners("p2"), 1)
	assert.Len(t, m.VetoableChangeListeners(), 1)
}

func TestBuild_ListenerResolverChain(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		class string
		scope declaration.Scope
		opts  []builder.Option
		same  bool
	}{
		{"factory method", "example.FactoryListener", declaration.Singleton, nil, true},
		{"overridden factory method", "example.FactoryListener", declaration.Singleton, []builder.Option{builder.WithFactoryMethod("Shared")}, true},
		{"instance field", "example.FieldListener", declaration.Singleton, nil, true},
		{"constructor", "example.ChangeListener", declaration.Prototype, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := mockDecl("a")
			d.AddListener(listenerDecl(tc.class, tc.scope))

			v, err := build(t, d, nil, tc.opts...)
			require.NoError(t, err)

			got := v.(*mockBean).PropertyChangeListeners()
			require.Len(t, got, 1)
			if tc.same {
				assert.Same(t, sharedListener, got[0])
			} else {
				assert.NotSame(t, sharedListener, got[0])
			}
		})
	}
}

func TestBuild_ListenerFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		class string
		scope declaration.Scope
		kind  errs.Kind
	}{
		{"singleton without static instance", "example.ChangeListener", declaration.Singleton, errs.NoStaticInstance},
		{"unreadable instance field", "example.NilFieldListener", declaration.Singleton, errs.IllegalAccess},
		{"unknown listener type", "example.Nope", declaration.Prototype, errs.TypeNotFound},
		{"not a listener", "example.Plain", declaration.Prototype, errs.Configuration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := mockDecl("a")
			d.AddListener(listenerDecl(tc.class, tc.scope))

			_, err := build(t, d, nil)
			require.ErrorIs(t, err, tc.kind)
			assert.Contains(t, err.Error(), tc.class)
		})
	}
}

func TestBuild_BeanWithoutListenerSupport(t *testing.T) {
	t.Parallel()

	d := declaration.NewBean("p", "example.Plain")
	d.AddListener(listenerDecl("example.ChangeListener", declaration.Prototype))

	_, err := build(t, d, nil)
	require.ErrorIs(t, err, errs.Configuration)
	assert.True(t, errors.Is(err, event.ErrUnsupportedSource))
}

// ── Dispatch ─────────────────────────────────────────────────────────────────

func TestVisit_IgnoresUnrelatedNodes(t *testing.T) {
	t.Parallel()
	b := builder.New(beans(nil), registry(t))

	assert.NoError(t, b.Visit("not a declaration"))
	assert.NoError(t, b.Visit(42))
	assert.Nil(t, b.Bean())
}

func TestVisit_PropertyBeforeBeanIsError(t *testing.T) {
	t.Parallel()
	b := builder.New(beans(nil), registry(t))

	err := b.Visit(&declaration.PropertyDeclaration{Name: "age", Value: "1"})
	assert.ErrorIs(t, err, errs.Configuration)
}

func TestVisit_BeanIsMostRecent(t *testing.T) {
	t.Parallel()
	b := builder.New(beans(nil), registry(t))

	require.NoError(t, b.Visit(mockDecl("one")))
	first := b.Bean()
	require.NoError(t, b.Visit(mockDecl("two")))

	assert.NotSame(t, first, b.Bean())
}

func TestBuild_LogsConstruction(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.DebugLevel)

	_, err := build(t, mockDecl("mockBean"), nil, builder.WithLogger(zap.New(core)))
	require.NoError(t, err)

	entries := logs.FilterMessage("bean constructed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "mockBean", entries[0].ContextMap()["bean"])
}
