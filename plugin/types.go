package plugin

import (
	"context"

	"github.com/amp-labs/breeze/lifecycle"
	"github.com/amp-labs/breeze/resolve"
	"github.com/amp-labs/breeze/statepath"
)

// Work is a synchronous operation. Tools is whatever the host hands to work
// callbacks (dispatch, services, ...).
type Work func(params any, tools any) any

// AsyncWork is a long-running operation. The host runs it on its own goroutine
// and turns the outcome into a success or error event.
type AsyncWork func(ctx context.Context, params any, tools any) (any, error)

// Definition describes one operation: what to run and how its outcome is
// written into state. It is immutable once registered.
type Definition struct {
	// Kind selects the adapter family, e.g. "better-promise".
	Kind string

	Work      Work
	AsyncWork AsyncWork

	// OnSuccess maps a success event into state. When unset (see
	// resolve.IsSet) the whole result is stored at "result.<name>".
	OnSuccess resolve.Spec

	// OnError maps an error event into state. When unset (see
	// resolve.IsSet) the whole error is stored at "error.<name>".
	OnError resolve.Spec

	// Initial seeds the initial state and wins over every computed seed.
	Initial statepath.Assignments
}

// Hook is a callback the host invokes at a lifecycle point.
type Hook func(ctx context.Context, event lifecycle.Event)

// Hooks are caller-supplied lifecycle callbacks carried on an Action. They are
// passed through untouched; only the host invokes them.
type Hooks struct {
	Start   Hook
	Success Hook
	Error   Hook
}

// Action is the dispatchable description of one run of an operation.
// Work and AsyncWork are nil unless the definition declared them; Hooks is nil
// unless the caller supplied hooks.
type Action struct {
	// ID is unique per created action. Hosts copy it into Event.Meta to tell
	// concurrent runs of the same operation apart.
	ID        string
	Types     lifecycle.Types
	Work      func(tools any) any
	AsyncWork func(ctx context.Context, tools any) (any, error)
	Hooks     *Hooks
}

// ActionCreator builds an Action for the given params.
type ActionCreator func(params any, hooks *Hooks) Action

// Reducer is a pure state transition function. A nil state stands for "no
// state yet" and is replaced by the reducer's initial state.
type Reducer func(state statepath.Tree, event lifecycle.Event) statepath.Tree

// Adapter builds the three artifacts of one adapter family.
type Adapter interface {
	BuildAction(def Definition, name string) ActionCreator
	BuildReducer(def Definition, name string, initial statepath.Tree) Reducer
	BuildInitialState(def Definition, name string) statepath.Assignments
}
