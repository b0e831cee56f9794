package plugin

import (
	"context"
	"errors"
	"fmt"

	"facette.io/natsort"
	commonErrors "github.com/amp-labs/breeze/errors"
	"github.com/amp-labs/breeze/lifecycle"
	"github.com/amp-labs/breeze/logger"
	"github.com/amp-labs/breeze/statepath"
)

// ErrUnknownOperation is returned when an action is requested for an operation
// that is not part of a bundle.
var ErrUnknownOperation = errors.New("plugin: unknown operation")

// Middleware wraps the reducer of one named operation.
type Middleware func(name string, reducer Reducer) Reducer

// ComposeOption customizes Compose.
type ComposeOption func(*composeOptions)

type composeOptions struct {
	middleware []Middleware
}

// WithMiddleware wraps every operation reducer with m. Middleware is applied in
// the order given, so the first one ends up innermost.
func WithMiddleware(m ...Middleware) ComposeOption {
	return func(o *composeOptions) {
		o.middleware = append(o.middleware, m...)
	}
}

type operation struct {
	name    string
	reducer Reducer
	creator ActionCreator
}

// Bundle is a set of named operations composed into one initial state, one
// root reducer and a table of action creators.
type Bundle struct {
	initial    statepath.Tree
	operations []operation
	byName     map[string]int
}

// Compose builds a Bundle from named definitions. Every definition must name a
// registered kind; all unknown kinds are reported together.
//
// Operations are processed in natural name order, which fixes the order
// initial state fragments are merged and reducers are run.
func (r *Registry) Compose(ctx context.Context, defs map[string]Definition, opts ...ComposeOption) (*Bundle, error) {
	var options composeOptions
	for _, opt := range opts {
		opt(&options)
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}

	natsort.Sort(names)

	adapters := make([]Adapter, len(names))
	errs := commonErrors.Collection{}

	for idx, name := range names {
		kind := defs[name].Kind

		adapter, ok := r.Lookup(kind)
		if !ok {
			errs.AddFor("operation", name, fmt.Errorf("%w: %q", commonErrors.ErrUnknownKind, kind))

			continue
		}

		adapters[idx] = adapter
	}

	if errs.HasError() {
		return nil, errs.GetError()
	}

	initial := statepath.Tree{}
	for idx, name := range names {
		initial = statepath.Apply(initial, adapters[idx].BuildInitialState(defs[name], name))
	}

	bundle := &Bundle{
		initial:    initial,
		operations: make([]operation, len(names)),
		byName:     make(map[string]int, len(names)),
	}

	for idx, name := range names {
		def := defs[name]

		reducer := adapters[idx].BuildReducer(def, name, initial)
		for _, m := range options.middleware {
			reducer = m(name, reducer)
		}

		bundle.operations[idx] = operation{
			name:    name,
			reducer: reducer,
			creator: adapters[idx].BuildAction(def, name),
		}
		bundle.byName[name] = idx

		logger.Get(ctx).Debug("composed operation", "operation", name, "kind", def.Kind)
	}

	logger.Get(ctx).Info("composed operations", "count", len(names))

	return bundle, nil
}

// Names returns the operation names in the bundle's processing order.
func (b *Bundle) Names() []string {
	names := make([]string, len(b.operations))
	for idx, op := range b.operations {
		names[idx] = op.name
	}

	return names
}

// InitialState returns the merged initial state of every operation.
// The returned tree is shared; callers must treat it as immutable.
func (b *Bundle) InitialState() statepath.Tree {
	return b.initial
}

// Reduce runs event through every operation reducer. A nil state is replaced
// by the initial state. When no operation reacts to the event the input state
// is returned as-is.
func (b *Bundle) Reduce(state statepath.Tree, event lifecycle.Event) statepath.Tree {
	if state == nil {
		state = b.initial
	}

	for _, op := range b.operations {
		state = op.reducer(state, event)
	}

	return state
}

// Reducer returns the reducer of a single operation.
func (b *Bundle) Reducer(name string) (Reducer, bool) {
	idx, ok := b.byName[name]
	if !ok {
		return nil, false
	}

	return b.operations[idx].reducer, true
}

// Action builds an action for the named operation.
func (b *Bundle) Action(name string, params any, hooks *Hooks) (Action, error) {
	idx, ok := b.byName[name]
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}

	return b.operations[idx].creator(params, hooks), nil
}
