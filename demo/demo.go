// Package demo holds the sample bean types wired by beans.xml.
package demo

import (
	"errors"
	"sync"
	"time"

	"github.com/km-arc/go-beans/framework/event"
	"github.com/km-arc/go-beans/framework/types"
)

// Register adds the demo types to reg under their declaration class names.
func Register(reg *types.Registry) {
	reg.MustRegister("demo.Clock", (*Clock)(nil), types.WithConstructor(NewClock))
	reg.MustRegister("demo.Greeter", (*Greeter)(nil),
		types.WithConstructor(NewGreeter),
		types.WithConstructor(func() *Greeter { return NewGreeter("hello") }),
	)
	reg.MustRegister("demo.Person", (*Person)(nil), types.WithConstructor(NewPerson))
	reg.MustRegister("demo.AuditListener", (*AuditListener)(nil),
		types.WithStaticMethod("GetInstance", Audit))
	reg.MustRegister("demo.CountingListener", (*CountingListener)(nil))
}

// Clock is a lifecycle-managed bean.
type Clock struct {
	Epoch time.Time

	mu      sync.Mutex
	running bool
}

func NewClock(epoch time.Time) *Clock { return &Clock{Epoch: epoch} }

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
}

func (c *Clock) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return errors.New("clock not running")
	}
	c.running = false
	return nil
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

type Greeter struct {
	Greeting string
	Clock    *Clock
	Timeout  time.Duration `bean:"timeout"`
}

func NewGreeter(greeting string) *Greeter { return &Greeter{Greeting: greeting} }

// Person fires a property change event when its age changes.
type Person struct {
	event.PropertyChangeSupport

	Name   string
	Friend *Person
	age    int
}

func NewPerson(name string) *Person { return &Person{Name: name} }

func (p *Person) Age() int { return p.age }

func (p *Person) SetAge(age int) {
	old := p.age
	p.age = age
	p.Fire(p, "age", old, age)
}

// AuditListener is shared by every bean that declares it.
type AuditListener struct {
	mu     sync.Mutex
	events []event.PropertyChangeEvent
}

var audit = &AuditListener{}

// Audit returns the process-wide audit listener.
func Audit() *AuditListener { return audit }

func (a *AuditListener) PropertyChange(e event.PropertyChangeEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

// Events returns the recorded events.
func (a *AuditListener) Events() []event.PropertyChangeEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]event.PropertyChangeEvent(nil), a.events...)
}

// CountingListener counts the changes it observes.
type CountingListener struct {
	mu sync.Mutex
	n  int
}

func (c *CountingListener) PropertyChange(event.PropertyChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *CountingListener) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
