// Package script describes loadable scripts: the unit a script author
// registers, the registry units live in, and the immutable Handle produced
// by loading a unit for one session.
package script

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/barscript/bar"
	"github.com/rustyeddy/barscript/isolation"
	"github.com/rustyeddy/barscript/strategy"
)

// Kind is the declared script kind.
type Kind uint8

const (
	KindUnknown Kind = iota
	Indicator
	Strategy
	Library
)

func (k Kind) String() string {
	switch k {
	case Indicator:
		return "indicator"
	case Strategy:
		return "strategy"
	case Library:
		return "library"
	}
	return "unknown"
}

// ParseKind parses indicator|strategy|library.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "indicator":
		return Indicator, nil
	case "strategy":
		return Strategy, nil
	case "library":
		return Library, nil
	}
	return KindUnknown, fmt.Errorf("unknown script kind %q", s)
}

// Inputs maps input names to values.
type Inputs map[string]any

// Clone returns a shallow copy.
func (in Inputs) Clone() Inputs {
	out := make(Inputs, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Float returns a numeric input.
func (in Inputs) Float(name string) float64 {
	switch v := in[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Int returns an integer input.
func (in Inputs) Int(name string) int {
	switch v := in[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// String returns a string input.
func (in Inputs) String(name string) string {
	s, _ := in[name].(string)
	return s
}

// Meta is the kind metadata attached to a script's entry point.
type Meta struct {
	Kind  Kind
	Title string

	// Precision is the number of significant digits used for plot output.
	// Zero selects the default.
	Precision int

	// Inputs are the declared inputs and their defaults.
	Inputs Inputs

	// Libraries lists library units whose entry points run before this
	// script on every bar, in this order.
	Libraries []string

	// InitialCapital seeds the position of a strategy.
	InitialCapital float64
}

// Call carries the arguments of one entry point invocation.
type Call struct {
	Bar      *bar.Context
	State    *isolation.Store
	Inputs   Inputs
	Position *strategy.Position

	// Libraries holds what each library already run on this bar returned,
	// keyed by library name.
	Libraries map[string]map[string]any
}

// Library returns the values library name produced for the current bar,
// or nil when it has not run yet.
func (c *Call) Library(name string) map[string]any {
	return c.Libraries[name]
}

// EntryPoint runs a script body for one bar. It returns nil or a flat
// label -> value mapping of plots.
type EntryPoint func(c *Call) (any, error)

// Builder is handed to a unit once at load time. Scripts declare their
// isolation sites on it and return their entry point.
type Builder struct {
	Sites    *isolation.Sites
	Inputs   Inputs
	Position *strategy.Position
}

// Unit is a registered, not yet loaded, script.
type Unit struct {
	Name  string
	Meta  *Meta
	Build func(b *Builder) EntryPoint
}
