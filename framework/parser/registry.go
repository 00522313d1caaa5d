package parser

import (
	"sort"
	"strings"
	"sync"

	"github.com/km-arc/go-beans/framework/errs"
)

// Default is the name of the built-in parser.
const Default = "xml"

// Factory creates a Parser.
type Factory func() Parser

var (
	mu        sync.RWMutex
	factories = map[string]Factory{
		"xml":  func() Parser { return NewXMLParser() },
		"yaml": func() Parser { return NewYAMLParser() },
	}
)

// Register makes a parser implementation available under name. A later
// registration under the same name replaces the earlier one.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(name)] = f
}

// Lookup returns a fresh parser for name; an empty name selects Default.
func Lookup(name string) (Parser, error) {
	if name = strings.ToLower(strings.TrimSpace(name)); name == "" {
		name = Default
	}
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, errs.Configurationf("", "unknown parser implementation %q", name)
	}
	return f(), nil
}

// Names lists the registered parser names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
