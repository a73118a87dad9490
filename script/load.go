package script

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rustyeddy/barscript/isolation"
	"github.com/rustyeddy/barscript/strategy"
)

var (
	ErrUnknownScript = errors.New("script: unknown script")
	ErrNoEntryPoint  = errors.New("script: no entry point")
	ErrNoKind        = errors.New("script: entry point has no kind metadata (indicator|strategy|library)")
	ErrNotLibrary    = errors.New("script: imported unit is not a library")
	ErrUnknownInput  = errors.New("script: unknown input")
	ErrImportCycle   = errors.New("script: library import cycle")
)

// DefaultPrecision is the number of significant digits used for plot
// values when a script does not declare one.
const DefaultPrecision = 8

// DefaultInitialCapital seeds strategy positions when neither the script
// nor the session sets a value.
const DefaultInitialCapital = 100_000

// LibraryEntry is one library entry point registered with a script.
type LibraryEntry struct {
	Name   string
	Inputs Inputs
	Main   EntryPoint
}

// Handle is a loaded script. It is created once per session and must not be
// modified afterwards.
type Handle struct {
	Name      string
	Title     string
	Kind      Kind
	Inputs    Inputs
	Precision int
	// Libraries run before Main on every bar. Imports are flattened so a
	// library always follows the libraries it imports, and each appears
	// once.
	Libraries []LibraryEntry
	Position  *strategy.Position
	Main      EntryPoint
	Sites     *isolation.Sites
}

// Options adjusts how a unit is loaded.
type Options struct {
	// InitialCapital overrides the script's declared capital when non-zero.
	InitialCapital float64
}

// Load loads a unit from the default registry.
func Load(name string, inputs Inputs, opts Options) (*Handle, error) {
	return defaultRegistry.Load(name, inputs, opts)
}

// Load resolves name, validates its metadata, applies inputs over the
// declared defaults and builds the main and library entry points. Every
// failure here is fatal for the session.
func (r *Registry) Load(name string, inputs Inputs, opts Options) (*Handle, error) {
	u, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScript, name)
	}
	if u.Build == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoEntryPoint, name)
	}
	if u.Meta == nil || u.Meta.Kind == KindUnknown {
		return nil, fmt.Errorf("%w: %q", ErrNoKind, name)
	}
	meta := u.Meta

	resolved, err := resolveInputs(meta.Inputs, inputs)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}

	h := &Handle{
		Name:      name,
		Title:     meta.Title,
		Kind:      meta.Kind,
		Inputs:    resolved,
		Precision: meta.Precision,
		Sites:     isolation.NewSites(),
	}
	if h.Title == "" {
		h.Title = name
	}
	if h.Precision <= 0 {
		h.Precision = DefaultPrecision
	}
	if meta.Kind == Strategy {
		capital := opts.InitialCapital
		if capital == 0 {
			capital = meta.InitialCapital
		}
		if capital == 0 {
			capital = DefaultInitialCapital
		}
		h.Position = strategy.NewPosition(capital)
	}

	for _, libName := range meta.Libraries {
		if err := r.importLibrary(libName, h, []string{name}); err != nil {
			return nil, fmt.Errorf("load %q: %w", name, err)
		}
	}

	h.Main = u.Build(&Builder{Sites: h.Sites, Inputs: resolved, Position: h.Position})
	if h.Main == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoEntryPoint, name)
	}
	if err := h.Sites.Err(); err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	return h, nil
}

// importLibrary appends name to h.Libraries after the libraries it imports.
// path is the chain of units that led here.
func (r *Registry) importLibrary(name string, h *Handle, path []string) error {
	if slices.Contains(path, name) {
		return fmt.Errorf("%w: %s -> %s", ErrImportCycle, strings.Join(path, " -> "), name)
	}
	for _, lib := range h.Libraries {
		if lib.Name == name {
			return nil
		}
	}

	u, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%w: library %q", ErrUnknownScript, name)
	}
	if u.Build == nil {
		return fmt.Errorf("%w: library %q", ErrNoEntryPoint, name)
	}
	if u.Meta == nil || u.Meta.Kind == KindUnknown {
		return fmt.Errorf("%w: library %q", ErrNoKind, name)
	}
	if u.Meta.Kind != Library {
		return fmt.Errorf("%w: %q is a %s", ErrNotLibrary, name, u.Meta.Kind)
	}

	path = append(path[:len(path):len(path)], name)
	for _, dep := range u.Meta.Libraries {
		if err := r.importLibrary(dep, h, path); err != nil {
			return err
		}
	}

	inputs := u.Meta.Inputs.Clone()
	main := u.Build(&Builder{Sites: h.Sites.Scope(name), Inputs: inputs, Position: h.Position})
	if main == nil {
		return fmt.Errorf("%w: library %q", ErrNoEntryPoint, name)
	}
	h.Libraries = append(h.Libraries, LibraryEntry{Name: name, Inputs: inputs, Main: main})
	return nil
}

func resolveInputs(declared, given Inputs) (Inputs, error) {
	out := declared.Clone()
	for k, v := range given {
		if _, ok := declared[k]; !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownInput, k)
		}
		out[k] = v
	}
	return out, nil
}
