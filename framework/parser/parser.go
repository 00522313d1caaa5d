// Package parser turns a declarations source into a declaration.Set.
//
// Two implementations ship with the package: XMLParser (the default) and
// YAMLParser. Both decode into the same element tree and share validation,
// so the same declarations produce the same set regardless of format.
//
//	p, _ := parser.Lookup("xml")
//	set, err := parser.ParseFile(p, "beans.xml")
package parser

import (
	"encoding/xml"
	"errors"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-beans/framework/declaration"
	"github.com/km-arc/go-beans/framework/errs"
)

// Parser reads a declarations source. Implementations return either a
// complete, validated set or an error; never a partial set.
type Parser interface {
	Parse(r io.Reader) (declaration.Set, error)
}

// XMLParser reads <beans> documents.
type XMLParser struct{}

// NewXMLParser returns the built-in XML parser.
func NewXMLParser() *XMLParser { return &XMLParser{} }

// Parse implements Parser.
func (*XMLParser) Parse(r io.Reader) (declaration.Set, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errs.ParseFailed("", err)
	}
	return build(&doc)
}

// YAMLParser reads YAML documents with a top-level "bean" list.
type YAMLParser struct{}

// NewYAMLParser returns the YAML parser.
func NewYAMLParser() *YAMLParser { return &YAMLParser{} }

// Parse implements Parser. Unknown keys are rejected.
func (*YAMLParser) Parse(r io.Reader) (declaration.Set, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errs.ParseFailed("", err)
	}
	return build(&doc)
}

// Parse reads declarations from r.
func Parse(p Parser, r io.Reader) (declaration.Set, error) {
	return p.Parse(r)
}

// ParseResource reads the named resource from fsys.
func ParseResource(p Parser, fsys fs.FS, name string) (declaration.Set, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, errs.ParseFailed(name, err)
	}
	defer f.Close()

	set, err := p.Parse(f)
	return set, withSource(err, name)
}

// ParseFile reads the declarations file at path.
func ParseFile(p Parser, path string) (declaration.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.ParseFailed(path, err)
	}
	defer f.Close()

	set, err := p.Parse(f)
	return set, withSource(err, path)
}

// withSource stamps the source name onto parsing errors that lack one.
func withSource(err error, source string) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Kind == errs.Parsing && e.Source == "" {
		e.Source = source
	}
	return err
}
