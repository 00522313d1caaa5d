package container

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/km-arc/go-beans/framework/builder"
	"github.com/km-arc/go-beans/framework/declaration"
	"github.com/km-arc/go-beans/framework/errs"
	"github.com/km-arc/go-beans/framework/lifecycle"
	"github.com/km-arc/go-beans/framework/metrics"
	"github.com/km-arc/go-beans/framework/parser"
	"github.com/km-arc/go-beans/framework/property"
	"github.com/km-arc/go-beans/framework/types"
)

// DefaultDefinitions is the declarations location used when none is given.
const DefaultDefinitions = "beans.xml"

type factoryState int

const (
	stateNew factoryState = iota
	stateInitializing
	stateReady
	stateFailed
	stateDestroyed
)

// Option configures a DeclarativeFactory.
type Option func(*DeclarativeFactory)

// WithDefinitions sets the declarations file path.
func WithDefinitions(path string) Option {
	return func(f *DeclarativeFactory) { f.location = path }
}

// WithFS reads the declarations from name inside fsys instead of the OS
// filesystem.
func WithFS(fsys fs.FS, name string) Option {
	return func(f *DeclarativeFactory) { f.fsys, f.location = fsys, name }
}

// WithParser selects the parser implementation by registered name.
func WithParser(name string) Option {
	return func(f *DeclarativeFactory) { f.parserName = name }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(f *DeclarativeFactory) { f.log = l }
}

// WithMetrics records build activity on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(f *DeclarativeFactory) { f.metrics = c }
}

// WithInvoker replaces the reflective init/destroy method invoker.
func WithInvoker(inv lifecycle.Invoker) Option {
	return func(f *DeclarativeFactory) { f.invoker = inv }
}

// WithPropertyAccessor replaces the reflective property accessor.
func WithPropertyAccessor(a property.Accessor) Option {
	return func(f *DeclarativeFactory) { f.accessor = a }
}

// WithFactoryMethod overrides the static method used to obtain listener
// instances.
func WithFactoryMethod(name string) Option {
	return func(f *DeclarativeFactory) { f.factoryMethod = name }
}

// DeclarativeFactory is a BeanFactory backed by a declarations source.
//
// Init must be called once before use. Afterwards the factory is safe for
// concurrent use: singletons are built at most once per id and different
// ids build in parallel.
type DeclarativeFactory struct {
	types         *types.Registry
	log           *zap.Logger
	metrics       *metrics.Collector
	invoker       lifecycle.Invoker
	accessor      property.Accessor
	factoryMethod string
	fsys          fs.FS
	location      string
	parserName    string

	// lazily resolved, at most once
	setupMu     sync.Mutex
	parser      parser.Parser
	parserErr   error
	definitions string
	defsErr     error
	defsDone    bool

	stateMu sync.RWMutex
	state   factoryState
	initErr error
	decls   declaration.Set
	cycles  map[string][]string

	cacheMu    sync.RWMutex
	singletons map[string]any
	order      []string

	building keyedMutex
}

var _ BeanFactory = (*DeclarativeFactory)(nil)

// NewDeclarativeFactory returns an uninitialised factory resolving type
// names through reg.
func NewDeclarativeFactory(reg *types.Registry, opts ...Option) *DeclarativeFactory {
	f := &DeclarativeFactory{
		types:         reg,
		log:           zap.NewNop(),
		invoker:       lifecycle.Reflective{},
		accessor:      property.Reflective{},
		factoryMethod: builder.DefaultFactoryMethod,
		location:      DefaultDefinitions,
		singletons:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ── Setup ─────────────────────────────────────────────────────────────────────

// Parser returns the configured parser, resolving it on first use.
func (f *DeclarativeFactory) Parser() (parser.Parser, error) {
	f.setupMu.Lock()
	defer f.setupMu.Unlock()
	if f.parser == nil && f.parserErr == nil {
		f.parser, f.parserErr = parser.Lookup(f.parserName)
	}
	return f.parser, f.parserErr
}

// DefinitionsFile returns the resolved declarations location, checking on
// first use that it exists. OS paths are made absolute.
func (f *DeclarativeFactory) DefinitionsFile() (string, error) {
	f.setupMu.Lock()
	defer f.setupMu.Unlock()
	if !f.defsDone {
		f.definitions, f.defsErr = f.resolveDefinitions()
		f.defsDone = true
	}
	return f.definitions, f.defsErr
}

func (f *DeclarativeFactory) resolveDefinitions() (string, error) {
	if f.fsys != nil {
		if _, err := fs.Stat(f.fsys, f.location); err != nil {
			return "", errs.ParseFailed(f.location, err)
		}
		return f.location, nil
	}
	abs, err := filepath.Abs(f.location)
	if err != nil {
		return "", errs.ParseFailed(f.location, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", errs.ParseFailed(abs, err)
	}
	return abs, nil
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

// Init parses the declarations and builds every eager singleton in id
// order. Any failure is returned as a system error and leaves the factory
// unusable. Init may be called only once.
func (f *DeclarativeFactory) Init() error {
	f.stateMu.Lock()
	if f.state != stateNew {
		f.stateMu.Unlock()
		return errs.Systemf(nil, "bean factory already initialized")
	}
	f.state = stateInitializing
	f.stateMu.Unlock()

	start := time.Now()
	err := f.load()
	if err == nil {
		err = f.buildEager()
	}

	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	if err != nil {
		f.state = stateFailed
		f.initErr = errs.Systemf(err, "bean factory initialization failed")
		f.log.Error("bean factory initialization failed", zap.Error(err))
		return f.initErr
	}
	f.state = stateReady
	f.log.Info("bean factory initialized",
		zap.Int("beans", len(f.decls)),
		zap.Int("singletons", f.cachedCount()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (f *DeclarativeFactory) load() error {
	p, err := f.Parser()
	if err != nil {
		return err
	}
	location, err := f.DefinitionsFile()
	if err != nil {
		return err
	}

	var set declaration.Set
	if f.fsys != nil {
		set, err = parser.ParseResource(p, f.fsys, location)
	} else {
		set, err = parser.ParseFile(p, location)
	}
	if err != nil {
		return err
	}

	cycles := set.ReferenceCycles()
	f.stateMu.Lock()
	f.decls, f.cycles = set, cycles
	f.stateMu.Unlock()

	f.log.Debug("declarations parsed",
		zap.String("source", location),
		zap.Int("beans", len(set)),
		zap.Int("cyclic", len(cycles)),
	)
	return nil
}

func (f *DeclarativeFactory) buildEager() error {
	for _, id := range f.decls.IDs() {
		if !f.decls[id].IsEagerSingleton() {
			continue
		}
		if _, err := f.GetBean(id); err != nil {
			return err
		}
	}
	return nil
}

// Destroy invokes the destroy method of every cached singleton, newest
// first. A failing method does not stop the others; all failures are
// returned together. The factory cannot be used afterwards.
func (f *DeclarativeFactory) Destroy() error {
	f.stateMu.Lock()
	if f.state == stateDestroyed {
		f.stateMu.Unlock()
		return nil
	}
	f.state = stateDestroyed
	decls := f.decls
	f.stateMu.Unlock()

	f.cacheMu.Lock()
	order, singletons := f.order, f.singletons
	f.order, f.singletons = nil, make(map[string]any)
	f.cacheMu.Unlock()
	f.metrics.SetSingletonsCached(0)

	var err error
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		d := decls[id]
		if d == nil || d.DestroyMethod == "" {
			continue
		}
		if e := f.invokeHook(d, singletons[id], d.DestroyMethod, "destroy"); e != nil {
			f.log.Warn("destroy method failed", zap.String("bean", id), zap.Error(e))
			err = multierr.Append(err, e)
		}
	}
	f.log.Info("bean factory destroyed", zap.Int("singletons", len(order)))
	return err
}

// invokeHook validates and runs a lifecycle method. A missing method is a
// configuration error; a failing one is reported as instantiation for init
// and system for destroy.
func (f *DeclarativeFactory) invokeHook(d *declaration.BeanDeclaration, bean any, method, phase string) error {
	if err := f.invoker.Validate(bean, method); err != nil {
		return &errs.Error{
			Kind:  errs.Configuration,
			Bean:  d.ID(),
			Class: d.ClassName,
			Msg:   phase + " method " + method + " not usable",
			Err:   err,
		}
	}
	if err := f.invoker.Invoke(bean, method); err != nil {
		kind := errs.System
		if phase == "init" {
			kind = errs.Instantiation
		}
		return &errs.Error{
			Kind:  kind,
			Bean:  d.ID(),
			Class: d.ClassName,
			Msg:   phase + " method " + method + " failed",
			Err:   err,
		}
	}
	return nil
}

// ready returns the declarations once parsing has succeeded.
func (f *DeclarativeFactory) ready() (declaration.Set, map[string][]string, error) {
	f.stateMu.RLock()
	defer f.stateMu.RUnlock()
	switch f.state {
	case stateReady:
		return f.decls, f.cycles, nil
	case stateInitializing:
		if f.decls != nil {
			return f.decls, f.cycles, nil
		}
		return nil, nil, errs.Systemf(nil, "bean factory is initializing")
	case stateFailed:
		return nil, nil, f.initErr
	case stateDestroyed:
		return nil, nil, errs.Systemf(nil, "bean factory destroyed")
	default:
		return nil, nil, errs.Systemf(nil, "bean factory not initialized")
	}
}

func (f *DeclarativeFactory) lookup(id string) (*declaration.BeanDeclaration, map[string][]string, error) {
	decls, cycles, err := f.ready()
	if err != nil {
		return nil, nil, err
	}
	d, ok := decls.Lookup(id)
	if !ok {
		return nil, nil, errs.NotFound(id)
	}
	return d, cycles, nil
}

// ── BeanFactory ───────────────────────────────────────────────────────────────

// GetBean implements BeanFactory.
func (f *DeclarativeFactory) GetBean(id string) (any, error) {
	return f.getBean(id)
}

// GetBeanWith implements BeanFactory.
func (f *DeclarativeFactory) GetBeanWith(id string, args ...any) (any, error) {
	if len(args) == 0 {
		return f.getBean(id)
	}
	return f.getBean(id, builder.WithArguments(args...))
}

// GetBeanTyped implements BeanFactory.
func (f *DeclarativeFactory) GetBeanTyped(id string, argTypes []string, args []any) (any, error) {
	if len(args) == 0 {
		return f.getBean(id)
	}
	return f.getBean(id, builder.WithTypedArguments(argTypes, args))
}

func (f *DeclarativeFactory) getBean(id string, overrides ...builder.Option) (any, error) {
	d, cycles, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	if cycle, ok := cycles[d.ID()]; ok {
		return nil, errs.Configurationf(d.ID(), "reference cycle %s", strings.Join(cycle, " -> "))
	}

	if !d.IsSingleton() {
		return f.create(d, overrides)
	}
	if inst, ok := f.cached(d.ID()); ok {
		return inst, nil
	}

	unlock := f.building.Lock(d.ID())
	defer unlock()
	if inst, ok := f.cached(d.ID()); ok {
		return inst, nil
	}

	inst, err := f.create(d, overrides)
	if err != nil {
		return nil, err
	}

	f.cacheMu.Lock()
	f.singletons[d.ID()] = inst
	f.order = append(f.order, d.ID())
	n := len(f.order)
	f.cacheMu.Unlock()

	f.metrics.SetSingletonsCached(n)
	f.log.Debug("singleton cached", zap.String("bean", d.ID()))
	return inst, nil
}

// create builds a bean and runs its init method.
func (f *DeclarativeFactory) create(d *declaration.BeanDeclaration, overrides []builder.Option) (any, error) {
	start := time.Now()
	opts := append([]builder.Option{
		builder.WithLogger(f.log),
		builder.WithPropertyAccessor(f.accessor),
		builder.WithFactoryMethod(f.factoryMethod),
	}, overrides...)

	inst, err := builder.Build(f, f.types, d, opts...)
	if err == nil && d.InitMethod != "" {
		err = f.invokeHook(d, inst, d.InitMethod, "init")
	}
	if err != nil {
		f.metrics.BuildFailed(string(errs.KindOf(err)))
		return nil, err
	}

	f.metrics.BeanBuilt(d.Scope.String(), time.Since(start))
	return inst, nil
}

func (f *DeclarativeFactory) cached(id string) (any, bool) {
	f.cacheMu.RLock()
	defer f.cacheMu.RUnlock()
	inst, ok := f.singletons[id]
	return inst, ok
}

func (f *DeclarativeFactory) cachedCount() int {
	f.cacheMu.RLock()
	defer f.cacheMu.RUnlock()
	return len(f.order)
}

// Aliases implements BeanFactory.
func (f *DeclarativeFactory) Aliases(id string) ([]string, error) {
	d, _, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), d.Aliases...), nil
}

// Scope implements BeanFactory.
func (f *DeclarativeFactory) Scope(id string) (declaration.Scope, error) {
	d, _, err := f.lookup(id)
	if err != nil {
		return declaration.Prototype, err
	}
	return d.Scope, nil
}

// Type implements BeanFactory. A declared type missing from the type
// registry is a system error.
func (f *DeclarativeFactory) Type(id string) (reflect.Type, error) {
	d, _, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	t, ok := f.types.Lookup(d.ClassName)
	if !ok {
		return nil, errs.Systemf(errs.UnknownType(d.ClassName, d.ID()), "cannot resolve type of bean %q", d.ID())
	}
	return t.Type(), nil
}

// ContainsBean implements BeanFactory.
func (f *DeclarativeFactory) ContainsBean(id string) bool {
	decls, _, err := f.ready()
	return err == nil && decls.Contains(id)
}

// ── Inspection ────────────────────────────────────────────────────────────────

// Declarations returns the parsed declarations. They must not be modified.
func (f *DeclarativeFactory) Declarations() (declaration.Set, error) {
	decls, _, err := f.ready()
	return decls, err
}

// Instantiated reports whether the singleton named id (or an alias) is
// cached.
func (f *DeclarativeFactory) Instantiated(id string) bool {
	d, _, err := f.lookup(id)
	if err != nil {
		return false
	}
	_, ok := f.cached(d.ID())
	return ok
}

// IsNotFound reports whether err means an unknown bean name.
func IsNotFound(err error) bool {
	return errors.Is(err, errs.BeanNotFound)
}
