package parser

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/km-arc/go-beans/framework/declaration"
	"github.com/km-arc/go-beans/framework/errs"
)

var validate = newValidator()

// newValidator reports field names by their source attribute name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("xml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// build converts a decoded document into a validated declaration set.
func build(doc *document) (declaration.Set, error) {
	set := make(declaration.Set, len(doc.Beans))
	order := make([]*declaration.BeanDeclaration, 0, len(doc.Beans))

	for i := range doc.Beans {
		el := &doc.Beans[i]
		if err := validateElement(i, el); err != nil {
			return nil, err
		}
		b, err := convertBean(el)
		if err != nil {
			return nil, err
		}
		if _, dup := set[b.ID()]; dup {
			return nil, errs.Configurationf(b.ID(), "duplicate bean id")
		}
		set[b.ID()] = b
		order = append(order, b)
	}

	if err := checkAliases(set, order); err != nil {
		return nil, err
	}
	if err := checkReferences(set); err != nil {
		return nil, err
	}
	return set, nil
}

func validateElement(index int, el *beanElement) error {
	trimElement(el)
	err := validate.Struct(el)
	if err == nil {
		return nil
	}
	bean := el.ID
	if bean == "" {
		bean = "#" + strconv.Itoa(index+1)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errs.Configurationf(bean, "%v", err)
	}
	fe := fieldErrs[0]
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return errs.Configurationf(bean, "missing required attribute %q (%s)", fe.Field(), path)
	case "boolean":
		return errs.Configurationf(bean, "attribute %q must be a boolean, got %q", fe.Field(), fmt.Sprint(fe.Value()))
	default:
		return errs.Configurationf(bean, "attribute %q failed %q validation", path, fe.Tag())
	}
}

// trimElement strips surrounding whitespace from the identifying attributes
// so a blank value fails the required checks.
func trimElement(el *beanElement) {
	el.ID = strings.TrimSpace(el.ID)
	el.Class = strings.TrimSpace(el.Class)
	for i := range el.Listeners {
		el.Listeners[i].Class = strings.TrimSpace(el.Listeners[i].Class)
		for j := range el.Listeners[i].Properties {
			p := &el.Listeners[i].Properties[j]
			p.Name = strings.TrimSpace(p.Name)
		}
	}
	for i := range el.Properties {
		el.Properties[i].Name = strings.TrimSpace(el.Properties[i].Name)
	}
}

func convertBean(el *beanElement) (*declaration.BeanDeclaration, error) {
	b := declaration.NewBean(strings.TrimSpace(el.ID), strings.TrimSpace(el.Class))
	b.Scope = declaration.ParseScope(el.Scope)
	b.InitMethod = strings.TrimSpace(el.InitMethod)
	b.DestroyMethod = strings.TrimSpace(el.DestroyMethod)
	b.Aliases = splitAliases(el.Name, b.ID())

	if el.LazyInit != "" {
		lazy, err := strconv.ParseBool(strings.TrimSpace(el.LazyInit))
		if err != nil {
			return nil, errs.Configurationf(b.ID(), "attribute \"lazy-init\" must be a boolean, got %q", el.LazyInit)
		}
		b.LazyInit = lazy
	}

	for _, a := range el.Arguments {
		b.AddArgument(convertArgument(a))
	}
	for _, l := range el.Listeners {
		ld := &declaration.ListenerDeclaration{
			ClassName: strings.TrimSpace(l.Class),
			Scope:     declaration.ParseScope(l.Scope),
		}
		for _, a := range l.Arguments {
			ld.Arguments = append(ld.Arguments, convertArgument(a))
		}
		for _, p := range l.Properties {
			ld.AddProperty(p.Name)
		}
		b.AddListener(ld)
	}
	for _, p := range el.Properties {
		b.AddProperty(&declaration.PropertyDeclaration{
			Name:          strings.TrimSpace(p.Name),
			Value:         p.Value,
			FormatPattern: p.FormatPattern,
			RefID:         strings.TrimSpace(p.RefID),
		})
	}
	return b, nil
}

func convertArgument(a argumentElement) declaration.InvocationArgument {
	return declaration.InvocationArgument{
		Type:          strings.TrimSpace(a.Type),
		Value:         a.Value,
		FormatPattern: a.FormatPattern,
		RefID:         strings.TrimSpace(a.RefID),
	}
}

// splitAliases splits a name list on commas, semicolons and whitespace,
// dropping duplicates and the bean's own id.
func splitAliases(list, id string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	var out []string
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f == id || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func checkAliases(set declaration.Set, order []*declaration.BeanDeclaration) error {
	owners := make(map[string]string)
	for _, b := range order {
		for _, alias := range b.Aliases {
			if _, clash := set[alias]; clash {
				return errs.Configurationf(b.ID(), "alias %q collides with the id of another bean", alias)
			}
			if owner, taken := owners[alias]; taken {
				return errs.Configurationf(b.ID(), "alias %q is already used by bean %q", alias, owner)
			}
			owners[alias] = b.ID()
		}
	}
	return nil
}

// checkReferences runs the two refid passes: constructor arguments of beans
// and their listeners first, then every property reachable through the set.
func checkReferences(set declaration.Set) error {
	for _, id := range set.IDs() {
		b := set[id]
		if i, ref, ok := dangling(set, b.Arguments); ok {
			return errs.DanglingArgument(id, i, ref)
		}
		for _, l := range b.Listeners {
			if i, ref, ok := dangling(set, l.Arguments); ok {
				return errs.DanglingListenerArgument(id, l.ClassName, i, ref)
			}
		}
	}

	return set.Walk(func(n declaration.Node) error {
		p, ok := n.(*declaration.PropertyDeclaration)
		if !ok || !p.IsReference() {
			return nil
		}
		if _, ok := set[p.RefID]; !ok {
			return errs.DanglingProperty(p.Owner().ID(), p.Name, p.RefID)
		}
		return nil
	})
}

// dangling returns the 1-based position and refid of the first argument
// referencing an unknown bean.
func dangling(set declaration.Set, args []declaration.InvocationArgument) (int, string, bool) {
	for i, arg := range args {
		if !arg.IsReference() {
			continue
		}
		if _, ok := set[arg.RefID]; !ok {
			return i + 1, arg.RefID, true
		}
	}
	return 0, "", false
}
