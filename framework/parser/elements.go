package parser

import "encoding/xml"

// The element structs mirror the declarations source one to one. XML and
// YAML decode into the same tree; the tags use the source spelling so
// validation messages can quote attribute names verbatim.

type document struct {
	XMLName xml.Name      `xml:"beans" yaml:"-"`
	Beans   []beanElement `xml:"bean" yaml:"bean" validate:"-"`
}

type beanElement struct {
	ID            string            `xml:"id,attr" yaml:"id" validate:"required"`
	Class         string            `xml:"class,attr" yaml:"class" validate:"required"`
	Scope         string            `xml:"scope,attr" yaml:"scope"`
	LazyInit      string            `xml:"lazy-init,attr" yaml:"lazy-init" validate:"omitempty,boolean"`
	InitMethod    string            `xml:"init-method,attr" yaml:"init-method"`
	DestroyMethod string            `xml:"destroy-method,attr" yaml:"destroy-method"`
	Name          string            `xml:"name,attr" yaml:"name"`
	Arguments     []argumentElement `xml:"constructor-arg" yaml:"constructor-arg" validate:"dive"`
	Listeners     []listenerElement `xml:"listener" yaml:"listener" validate:"dive"`
	Properties    []propertyElement `xml:"property" yaml:"property" validate:"dive"`
}

type argumentElement struct {
	Type          string `xml:"type,attr" yaml:"type"`
	Value         string `xml:"value,attr" yaml:"value"`
	RefID         string `xml:"refid,attr" yaml:"refid"`
	FormatPattern string `xml:"format-pattern,attr" yaml:"format-pattern"`
}

type listenerElement struct {
	Class      string                    `xml:"class,attr" yaml:"class" validate:"required"`
	Scope      string                    `xml:"scope,attr" yaml:"scope"`
	Arguments  []argumentElement         `xml:"constructor-arg" yaml:"constructor-arg" validate:"dive"`
	Properties []listenerPropertyElement `xml:"property" yaml:"property" validate:"dive"`
}

type listenerPropertyElement struct {
	Name string `xml:"name,attr" yaml:"name" validate:"required"`
}

type propertyElement struct {
	Name          string `xml:"name,attr" yaml:"name" validate:"required"`
	Value         string `xml:"value,attr" yaml:"value"`
	RefID         string `xml:"refid,attr" yaml:"refid"`
	FormatPattern string `xml:"format-pattern,attr" yaml:"format-pattern"`
}
