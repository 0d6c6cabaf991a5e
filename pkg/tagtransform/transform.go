// Package tagtransform provides the named tag transforms destinations
// reference from their capability declarations, and composes them into the
// single function a model.Capability carries.
package tagtransform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrUnknownTransform is returned when a capability names a transform that
// is not registered.
var ErrUnknownTransform = errors.New("tagtransform: unknown transform")

// Func rewrites one tag.
type Func func(string) string

// Built-in transform names.
const (
	Hashtag          = "hashtag"
	Lowercase        = "lowercase"
	Uppercase        = "uppercase"
	UnderscoreSpaces = "underscore-spaces"
	StripSpaces      = "strip-spaces"
	ASCII            = "ascii"
	Alnum            = "alnum"
)

// Registry holds named transforms.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{transforms: make(map[string]Func)}
}

// Default returns a registry preloaded with the built-in transforms.
func Default() *Registry {
	r := NewRegistry()
	for name, fn := range builtins() {
		// Names are unique by construction.
		_ = r.Register(name, fn)
	}
	return r
}

// Register adds a transform under name.
func (r *Registry) Register(name string, fn Func) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("tagtransform: name is required")
	}
	if fn == nil {
		return fmt.Errorf("tagtransform: transform %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transforms[name]; exists {
		return fmt.Errorf("tagtransform: transform %q already registered", name)
	}
	r.transforms[name] = fn
	return nil
}

// Get returns the transform registered under name.
func (r *Registry) Get(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.transforms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, name)
	}
	return fn, nil
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.transforms))
	for name := range r.transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build chains the named transforms left to right. No names yields a nil
// function, meaning the destination applies no transform.
func (r *Registry) Build(names []string) (func(string) string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	chain := make([]Func, 0, len(names))
	for _, name := range names {
		fn, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, fn)
	}
	return func(tag string) string {
		for _, fn := range chain {
			tag = fn(tag)
		}
		return tag
	}, nil
}

func builtins() map[string]Func {
	return map[string]Func{
		Hashtag:          hashtag,
		Lowercase:        strings.ToLower,
		Uppercase:        strings.ToUpper,
		UnderscoreSpaces: underscoreSpaces,
		StripSpaces:      stripSpaces,
		ASCII:            foldASCII,
		Alnum:            alnum,
	}
}

func hashtag(tag string) string {
	if tag == "" || strings.HasPrefix(tag, "#") {
		return tag
	}
	return "#" + tag
}

func underscoreSpaces(tag string) string {
	return strings.Join(strings.Fields(tag), "_")
}

func stripSpaces(tag string) string {
	return strings.Join(strings.Fields(tag), "")
}

// foldASCII strips diacritics and drops whatever is still outside ASCII.
func foldASCII(tag string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, tag)
	if err != nil {
		folded = tag
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, folded)
}

// alnum keeps letters, digits and underscores.
func alnum(tag string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, tag)
}
