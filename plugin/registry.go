// Package plugin defines operation definitions, the adapter families that turn
// them into actions, reducers and initial state, and the registry that maps an
// adapter kind to its implementation.
//
// The registry is an ordinary value: build it once, register the adapter
// families the application uses, and pass it to whatever composes the final
// reducer and action creators.
//
//	registry := plugin.NewRegistry()
//	_ = registry.Register(promise.Kind, promise.New(lifecycle.UpperSnake))
//	bundle, err := registry.Compose(ctx, definitions)
package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/amp-labs/breeze/statepath"
)

var (
	// ErrEmptyKind is returned when an adapter is registered without a kind.
	ErrEmptyKind = errors.New("plugin: empty adapter kind")
	// ErrNilAdapter is returned when a nil adapter is registered.
	ErrNilAdapter = errors.New("plugin: nil adapter")
	// ErrDuplicateKind is returned when a kind is registered twice.
	ErrDuplicateKind = errors.New("plugin: adapter kind already registered")
)

// Registry maps adapter kinds to adapters. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register adds an adapter under kind.
func (r *Registry) Register(kind string, adapter Adapter) error {
	if kind == "" {
		return ErrEmptyKind
	}

	if adapter == nil {
		return fmt.Errorf("%w: %q", ErrNilAdapter, kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[kind]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateKind, kind)
	}

	r.adapters[kind] = adapter

	return nil
}

// MustRegister is Register that panics on error, for wiring at startup.
func (r *Registry) MustRegister(kind string, adapter Adapter) *Registry {
	if err := r.Register(kind, adapter); err != nil {
		panic(err)
	}

	return r
}

// Lookup returns the adapter registered under kind.
func (r *Registry) Lookup(kind string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[kind]

	return adapter, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.adapters))
	for kind := range r.adapters {
		kinds = append(kinds, kind)
	}

	sort.Strings(kinds)

	return kinds
}

// ActionAdapterFunc builds an action creator for a definition.
type ActionAdapterFunc func(def Definition, name string) ActionCreator

// ReducerAdapterFunc builds a reducer for a definition.
type ReducerAdapterFunc func(def Definition, name string, initial statepath.Tree) Reducer

// InitialStateAdapterFunc builds the initial state assignments for a definition.
type InitialStateAdapterFunc func(def Definition, name string) statepath.Assignments

// Plugin is the contract handed to a host runtime: three adapter maps keyed by
// kind, each holding the corresponding builder.
type Plugin struct {
	Name                string
	ActionAdapter       map[string]ActionAdapterFunc
	ReducerAdapter      map[string]ReducerAdapterFunc
	InitialStateAdapter map[string]InitialStateAdapterFunc
}

// Plugin snapshots the registry into the host contract.
func (r *Registry) Plugin(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := Plugin{
		Name:                name,
		ActionAdapter:       make(map[string]ActionAdapterFunc, len(r.adapters)),
		ReducerAdapter:      make(map[string]ReducerAdapterFunc, len(r.adapters)),
		InitialStateAdapter: make(map[string]InitialStateAdapterFunc, len(r.adapters)),
	}

	for kind, adapter := range r.adapters {
		p.ActionAdapter[kind] = adapter.BuildAction
		p.ReducerAdapter[kind] = adapter.BuildReducer
		p.InitialStateAdapter[kind] = adapter.BuildInitialState
	}

	return p
}
