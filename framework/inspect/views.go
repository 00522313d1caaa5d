package inspect

import "github.com/km-arc/go-beans/framework/declaration"

// Summary is the list view of one declaration.
type Summary struct {
	ID           string   `json:"id"`
	Class        string   `json:"class"`
	Scope        string   `json:"scope"`
	Aliases      []string `json:"aliases,omitempty"`
	LazyInit     bool     `json:"lazy_init,omitempty"`
	Instantiated bool     `json:"instantiated"`
}

// Detail is the full view of one declaration.
type Detail struct {
	Summary
	InitMethod    string     `json:"init_method,omitempty"`
	DestroyMethod string     `json:"destroy_method,omitempty"`
	Arguments     []Argument `json:"arguments,omitempty"`
	Listeners     []Listener `json:"listeners,omitempty"`
	Properties    []Property `json:"properties,omitempty"`
}

type Argument struct {
	Type   string `json:"type,omitempty"`
	Value  string `json:"value,omitempty"`
	Format string `json:"format,omitempty"`
	RefID  string `json:"refid,omitempty"`
}

type Listener struct {
	Class      string     `json:"class"`
	Scope      string     `json:"scope"`
	Arguments  []Argument `json:"arguments,omitempty"`
	Properties []string   `json:"properties,omitempty"`
}

type Property struct {
	Name   string `json:"name"`
	Value  string `json:"value,omitempty"`
	Format string `json:"format,omitempty"`
	RefID  string `json:"refid,omitempty"`
}

// Instance describes a bean built on request.
type Instance struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Singleton bool   `json:"singleton"`
	Cached    bool   `json:"cached"`
}

func summarize(d *declaration.BeanDeclaration, instantiated bool) Summary {
	return Summary{
		ID:           d.ID(),
		Class:        d.ClassName,
		Scope:        d.Scope.String(),
		Aliases:      d.Aliases,
		LazyInit:     d.LazyInit,
		Instantiated: instantiated,
	}
}

func detail(d *declaration.BeanDeclaration, instantiated bool) Detail {
	out := Detail{
		Summary:       summarize(d, instantiated),
		InitMethod:    d.InitMethod,
		DestroyMethod: d.DestroyMethod,
		Arguments:     arguments(d.Arguments),
	}
	for _, l := range d.Listeners {
		out.Listeners = append(out.Listeners, Listener{
			Class:      l.ClassName,
			Scope:      l.Scope.String(),
			Arguments:  arguments(l.Arguments),
			Properties: l.Properties,
		})
	}
	for _, p := range d.Properties {
		out.Properties = append(out.Properties, Property{
			Name:   p.Name,
			Value:  p.Value,
			Format: p.FormatPattern,
			RefID:  p.RefID,
		})
	}
	return out
}

func arguments(in []declaration.InvocationArgument) []Argument {
	if len(in) == 0 {
		return nil
	}
	out := make([]Argument, len(in))
	for i, a := range in {
		out[i] = Argument{Type: a.Type, Value: a.Value, Format: a.FormatPattern, RefID: a.RefID}
	}
	return out
}
