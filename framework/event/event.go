// Package event defines the property-change listener model beans use to
// publish changes, and Attach, which registers a listener on a bean.
//
// A bean becomes a listener source by embedding PropertyChangeSupport
// and/or VetoableChangeSupport:
//
//	type Account struct {
//	    event.PropertyChangeSupport
//	    balance int
//	}
//
//	func (a *Account) SetBalance(v int) {
//	    old := a.balance
//	    a.balance = v
//	    a.Fire(a, "balance", old, v)
//	}
package event

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// PropertyChangeEvent describes a change of one property of Source.
type PropertyChangeEvent struct {
	Source       any
	PropertyName string
	OldValue     any
	NewValue     any
}

// PropertyChangeListener is notified after a property changed.
type PropertyChangeListener interface {
	PropertyChange(evt PropertyChangeEvent)
}

// VetoableChangeListener is consulted before a property changes. A non-nil
// error vetoes the change.
type VetoableChangeListener interface {
	VetoableChange(evt PropertyChangeEvent) error
}

// PropertyChangeSource accepts property-change listeners.
type PropertyChangeSource interface {
	AddPropertyChangeListener(l PropertyChangeListener)
	AddNamedPropertyChangeListener(property string, l PropertyChangeListener)
}

// VetoableChangeSource accepts vetoable-change listeners.
type VetoableChangeSource interface {
	AddVetoableChangeListener(l VetoableChangeListener)
	AddNamedVetoableChangeListener(property string, l VetoableChangeListener)
}

var (
	// ErrNotAListener is returned by Attach for a value implementing
	// neither listener interface.
	ErrNotAListener = errors.New("value implements no listener interface")
	// ErrUnsupportedSource is returned by Attach when the bean does not
	// accept a listener kind the listener implements.
	ErrUnsupportedSource = errors.New("bean does not accept this listener kind")
	// ErrVetoed wraps the error a vetoable listener returned.
	ErrVetoed = errors.New("change vetoed")
)

// Attach registers listener on bean for every listener kind it implements.
// With property names the listener is registered once per name; without,
// once for the whole bean. It returns the number of registrations made.
// Both sources are checked before anything is registered.
func Attach(bean, listener any, properties []string) (int, error) {
	pl, isPL := listener.(PropertyChangeListener)
	vl, isVL := listener.(VetoableChangeListener)
	if !isPL && !isVL {
		return 0, fmt.Errorf("%T: %w", listener, ErrNotAListener)
	}

	var (
		ps PropertyChangeSource
		vs VetoableChangeSource
		ok bool
	)
	if isPL {
		if ps, ok = bean.(PropertyChangeSource); !ok {
			return 0, fmt.Errorf("%T: property-change: %w", bean, ErrUnsupportedSource)
		}
	}
	if isVL {
		if vs, ok = bean.(VetoableChangeSource); !ok {
			return 0, fmt.Errorf("%T: vetoable-change: %w", bean, ErrUnsupportedSource)
		}
	}

	n := 0
	if ps != nil {
		if len(properties) == 0 {
			ps.AddPropertyChangeListener(pl)
			n++
		}
		for _, p := range properties {
			ps.AddNamedPropertyChangeListener(p, pl)
			n++
		}
	}
	if vs != nil {
		if len(properties) == 0 {
			vs.AddVetoableChangeListener(vl)
			n++
		}
		for _, p := range properties {
			vs.AddNamedVetoableChangeListener(p, vl)
			n++
		}
	}
	return n, nil
}

// unchanged reports whether firing would announce no change.
func unchanged(oldValue, newValue any) bool {
	return oldValue != nil && newValue != nil && reflect.DeepEqual(oldValue, newValue)
}

// PropertyChangeSupport keeps property-change listeners. The zero value
// is ready to use and is safe for concurrent use.
type PropertyChangeSupport struct {
	mu    sync.RWMutex
	all   []PropertyChangeListener
	named map[string][]PropertyChangeListener
}

// AddPropertyChangeListener implements PropertyChangeSource.
func (s *PropertyChangeSupport) AddPropertyChangeListener(l PropertyChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, l)
}

// AddNamedPropertyChangeListener implements PropertyChangeSource.
func (s *PropertyChangeSupport) AddNamedPropertyChangeListener(property string, l PropertyChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.named == nil {
		s.named = make(map[string][]PropertyChangeListener)
	}
	s.named[property] = append(s.named[property], l)
}

// PropertyChangeListeners returns the whole-bean listeners.
func (s *PropertyChangeSupport) PropertyChangeListeners() []PropertyChangeListener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PropertyChangeListener(nil), s.all...)
}

// NamedPropertyChangeListeners returns the listeners registered for property.
func (s *PropertyChangeSupport) NamedPropertyChangeListeners(property string) []PropertyChangeListener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PropertyChangeListener(nil), s.named[property]...)
}

// Fire notifies whole-bean listeners, then listeners of property. Nothing
// is fired when both values are non-nil and equal.
func (s *PropertyChangeSupport) Fire(source any, property string, oldValue, newValue any) {
	if unchanged(oldValue, newValue) {
		return
	}
	s.mu.RLock()
	targets := append(append([]PropertyChangeListener(nil), s.all...), s.named[property]...)
	s.mu.RUnlock()

	evt := PropertyChangeEvent{Source: source, PropertyName: property, OldValue: oldValue, NewValue: newValue}
	for _, l := range targets {
		l.PropertyChange(evt)
	}
}

// VetoableChangeSupport keeps vetoable-change listeners. The zero value
// is ready to use and is safe for concurrent use.
type VetoableChangeSupport struct {
	mu    sync.RWMutex
	all   []VetoableChangeListener
	named map[string][]VetoableChangeListener
}

// AddVetoableChangeListener implements VetoableChangeSource.
func (s *VetoableChangeSupport) AddVetoableChangeListener(l VetoableChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, l)
}

// AddNamedVetoableChangeListener implements VetoableChangeSource.
func (s *VetoableChangeSupport) AddNamedVetoableChangeListener(property string, l VetoableChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.named == nil {
		s.named = make(map[string][]VetoableChangeListener)
	}
	s.named[property] = append(s.named[property], l)
}

// VetoableChangeListeners returns the whole-bean listeners.
func (s *VetoableChangeSupport) VetoableChangeListeners() []VetoableChangeListener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]VetoableChangeListener(nil), s.all...)
}

// NamedVetoableChangeListeners returns the listeners registered for property.
func (s *VetoableChangeSupport) NamedVetoableChangeListeners(property string) []VetoableChangeListener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]VetoableChangeListener(nil), s.named[property]...)
}

// FireVetoable consults whole-bean listeners, then listeners of property,
// stopping at the first veto.
func (s *VetoableChangeSupport) FireVetoable(source any, property string, oldValue, newValue any) error {
	if unchanged(oldValue, newValue) {
		return nil
	}
	s.mu.RLock()
	targets := append(append([]VetoableChangeListener(nil), s.all...), s.named[property]...)
	s.mu.RUnlock()

	evt := PropertyChangeEvent{Source: source, PropertyName: property, OldValue: oldValue, NewValue: newValue}
	for _, l := range targets {
		if err := l.VetoableChange(evt); err != nil {
			return fmt.Errorf("%s: %w: %w", property, ErrVetoed, err)
		}
	}
	return nil
}
