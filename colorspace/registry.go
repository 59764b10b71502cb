package colorspace

import (
	"errors"
	"fmt"
	"sort"
)

// Registry resolves colour space names to ColorSpace values. A Registry is
// constructed preloaded with the standard reference, display and
// camera-native spaces; pipelines register custom wall gamuts on top. It is
// passed explicitly into the samplers and the engine, there is no hidden
// package-level table.
//
// Registration is expected to happen during pipeline setup; a Registry is
// safe for concurrent readers once populated.
type Registry struct {
	spaces map[string]*ColorSpace
}

// ErrUnknownColorSpace is returned when a name cannot be resolved.
var ErrUnknownColorSpace = errors.New("colorspace: unknown colour space")

// NewRegistry returns a registry preloaded with the built-in spaces.
func NewRegistry() *Registry {
	r := &Registry{spaces: make(map[string]*ColorSpace, len(standardSpaces))}
	for _, def := range standardSpaces {
		cs, err := New(def.name, def.red, def.green, def.blue, def.white)
		if err != nil {
			// Built-in definitions are fixed data; a failure here is a
			// programming error in the tables above.
			panic(err)
		}
		r.spaces[def.name] = cs
	}
	return r
}

// Register adds a colour space to the registry. Registering a name twice
// replaces the earlier entry.
func (r *Registry) Register(cs *ColorSpace) {
	r.spaces[cs.Name()] = cs
}

// RegisterCustom builds a colour space from 4 xy pairs and registers it.
func (r *Registry) RegisterCustom(name string, red, green, blue, white Chromaticity) (*ColorSpace, error) {
	cs, err := New(name, red, green, blue, white)
	if err != nil {
		return nil, err
	}
	r.Register(cs)
	return cs, nil
}

// Resolve returns the colour space registered under name.
func (r *Registry) Resolve(name string) (*ColorSpace, error) {
	cs, ok := r.spaces[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColorSpace, name)
	}
	return cs, nil
}

// Names returns the registered colour space names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.spaces))
	for name := range r.spaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
