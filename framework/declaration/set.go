package declaration

import "sort"

// Set maps bean ids to their declarations.
type Set map[string]*BeanDeclaration

// Lookup finds a declaration by id or, failing that, by alias.
func (s Set) Lookup(name string) (*BeanDeclaration, bool) {
	if b, ok := s[name]; ok {
		return b, true
	}
	for _, b := range s {
		for _, alias := range b.Aliases {
			if alias == name {
				return b, true
			}
		}
	}
	return nil, false
}

// Contains reports whether name is an id or alias of the set.
func (s Set) Contains(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// IDs returns the bean ids in ascending order.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Walk calls fn for every bean in id order and, after each bean, for its
// listeners and properties in declaration order. The first error stops the
// walk and is returned.
func (s Set) Walk(fn func(Node) error) error {
	for _, id := range s.IDs() {
		b := s[id]
		if err := fn(b); err != nil {
			return err
		}
		for _, l := range b.Listeners {
			if err := fn(l); err != nil {
				return err
			}
		}
		for _, p := range b.Properties {
			if err := fn(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// References returns the ids a bean refers to through its constructor
// arguments, listener arguments and properties, in declaration order.
func (b *BeanDeclaration) References() []string {
	var refs []string
	for _, a := range b.Arguments {
		if a.IsReference() {
			refs = append(refs, a.RefID)
		}
	}
	for _, l := range b.Listeners {
		for _, a := range l.Arguments {
			if a.IsReference() {
				refs = append(refs, a.RefID)
			}
		}
	}
	for _, p := range b.Properties {
		if p.IsReference() {
			refs = append(refs, p.RefID)
		}
	}
	return refs
}

// ReferenceCycles finds every bean that can reach a reference cycle.
// Each entry maps such a bean id to one cycle it reaches, written as the
// path that closes on its first element, e.g. [a b a].
func (s Set) ReferenceCycles() map[string][]string {
	const (
		unvisited = iota
		active
		done
	)
	out := make(map[string][]string)
	state := make(map[string]int, len(s))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		switch state[id] {
		case done:
			return out[id]
		case active:
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i] == id {
					return append(append([]string(nil), stack[i:]...), id)
				}
			}
		}

		state[id] = active
		stack = append(stack, id)
		var cycle []string
		for _, ref := range s[id].References() {
			if _, ok := s[ref]; !ok {
				continue
			}
			if c := visit(ref); c != nil && cycle == nil {
				cycle = c
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		if cycle != nil {
			out[id] = cycle
		}
		return cycle
	}

	for _, id := range s.IDs() {
		visit(id)
	}
	return out
}
