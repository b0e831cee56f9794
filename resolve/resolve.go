// Package resolve turns a declarative field mapping into concrete state
// assignments.
//
// A mapping associates a dotted target path in the state tree with a Source
// describing where the value comes from. Sources are a closed set:
//
//   - PathSource copies the value at a dotted path of the event.
//   - ComputedSource calls a function with the event and the value currently
//     stored at the target.
//   - ConfiguredSource is either of the above plus an optional default (used
//     when the event lacks the path) and an optional initial value (used when
//     seeding the initial state).
//
// Resolution never nests values itself; it returns flat statepath.Assignments
// for statepath.Apply to merge.
package resolve

import (
	"github.com/amp-labs/breeze/lifecycle"
	"github.com/amp-labs/breeze/optional"
	"github.com/amp-labs/breeze/statepath"
)

// Source describes where the value of one mapping entry comes from.
// Implementations: PathSource, ComputedSource, ConfiguredSource.
type Source interface {
	source()
}

// PathSource names a dotted path inside the event, e.g. "result.user.id".
type PathSource string

// ComputedSource computes the new value from the event and the value currently
// stored at the target path (nil when absent).
type ComputedSource func(event lifecycle.Event, current any) any

// ConfiguredSource is a source with extra annotations.
// When Compute is set it takes precedence over Path.
type ConfiguredSource struct {
	Path    string
	Compute ComputedSource

	// Default is used when the event has no value at Path.
	Default optional.Value[any]

	// Initial seeds the target when the initial state is built.
	Initial optional.Value[any]
}

func (PathSource) source()       {}
func (ComputedSource) source()   {}
func (ConfiguredSource) source() {}

// Mapping is a literal flat mapping from dotted target path to Source.
type Mapping map[string]Source

// MappingFunc produces the mapping from the triggering event.
type MappingFunc func(event lifecycle.Event) Mapping

// Spec is a mapping specification: either a literal Mapping or a MappingFunc.
type Spec interface {
	Mapping(event lifecycle.Event) Mapping
}

// IsSet reports whether spec describes a mapping. A nil interface and a nil
// MappingFunc both count as unset; a nil Mapping is a set, empty mapping.
func IsSet(spec Spec) bool {
	if spec == nil {
		return false
	}

	if fn, ok := spec.(MappingFunc); ok && fn == nil {
		return false
	}

	return true
}

// Mapping returns the literal mapping, ignoring the event.
func (m Mapping) Mapping(lifecycle.Event) Mapping {
	return m
}

// Mapping invokes the function with the event.
func (f MappingFunc) Mapping(event lifecycle.Event) Mapping {
	return f(event)
}

// Resolve computes the assignments produced by spec for event.
// Current values handed to computed sources are read from state, which should
// be the state as it was before the event.
//
// An unset spec (see IsSet) resolves to nil. A panicking computed source is
// not recovered.
func Resolve(spec Spec, event lifecycle.Event, state statepath.Tree) statepath.Assignments {
	if !IsSet(spec) {
		return nil
	}

	mapping := spec.Mapping(event)
	out := make(statepath.Assignments, len(mapping))

	for target, src := range mapping {
		out[target] = resolveSource(src, target, event, state)
	}

	return out
}

func resolveSource(src Source, target string, event lifecycle.Event, state statepath.Tree) any {
	switch s := src.(type) {
	case ComputedSource:
		return compute(s, target, event, state)
	case ConfiguredSource:
		if s.Compute != nil {
			return compute(s.Compute, target, event, state)
		}

		if s.Default.NonEmpty() && !event.Has(s.Path) {
			return s.Default.GetOrElse(nil)
		}

		return event.Get(s.Path)
	case PathSource:
		return event.Get(string(s))
	default:
		return nil
	}
}

func compute(fn ComputedSource, target string, event lifecycle.Event, state statepath.Tree) any {
	current, _ := statepath.Get(state, target)

	return fn(event, current)
}

// ResolveInitial computes the seed assignments for spec. A MappingFunc is
// called with the zero Event since no event exists yet. Every target resolves
// to the Initial annotation of a ConfiguredSource, or nil; computed sources are
// never invoked.
func ResolveInitial(spec Spec) statepath.Assignments {
	if !IsSet(spec) {
		return nil
	}

	mapping := spec.Mapping(lifecycle.Event{})
	out := make(statepath.Assignments, len(mapping))

	for target, src := range mapping {
		out[target] = nil

		if cfg, ok := src.(ConfiguredSource); ok {
			out[target] = cfg.Initial.GetOrElse(nil)
		}
	}

	return out
}
