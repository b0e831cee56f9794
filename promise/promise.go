// Package promise implements the "better-promise" adapter family: an operation
// that starts, then either succeeds or fails, tracked in state by five flags
// per operation name N:
//
//	pending.N        true between start and completion
//	lastSucceeded.N  the most recent completion was a success
//	lastFailed.N     the most recent completion was a failure
//	succeeded.N      the operation has succeeded at least once
//	failed.N         the operation has failed at least once
//
// Outcomes are stored at result.N / error.N unless the definition supplies its
// own mapping.
package promise

import (
	"context"

	"github.com/amp-labs/breeze/lifecycle"
	"github.com/amp-labs/breeze/plugin"
	"github.com/amp-labs/breeze/resolve"
	"github.com/amp-labs/breeze/statepath"
	"github.com/google/uuid"
)

// Kind is the adapter kind handled by this package.
const Kind = "better-promise"

// Top-level state keys.
const (
	KeyPending       = "pending"
	KeyLastSucceeded = "lastSucceeded"
	KeyLastFailed    = "lastFailed"
	KeySucceeded     = "succeeded"
	KeyFailed        = "failed"
	KeyResult        = "result"
	KeyError         = "error"
)

// Adapter builds actions, reducers and initial state for better-promise
// definitions.
type Adapter struct {
	typeFn lifecycle.TypeFunc
}

var _ plugin.Adapter = (*Adapter)(nil)

// New creates an Adapter deriving event types with typeFn.
// A nil typeFn falls back to lifecycle.UpperSnake.
func New(typeFn lifecycle.TypeFunc) *Adapter {
	if typeFn == nil {
		typeFn = lifecycle.UpperSnake
	}

	return &Adapter{typeFn: typeFn}
}

// Register adds a new Adapter to registry under Kind.
func Register(registry *plugin.Registry, typeFn lifecycle.TypeFunc) error {
	return registry.Register(Kind, New(typeFn))
}

// BuildAction returns the action creator for the named operation. Every call of
// the creator yields a fresh action ID.
func (a *Adapter) BuildAction(def plugin.Definition, name string) plugin.ActionCreator {
	return func(params any, hooks *plugin.Hooks) plugin.Action {
		action := plugin.Action{
			ID:    uuid.NewString(),
			Types: lifecycle.NewTypes(a.typeFn, name),
		}

		if def.Work != nil {
			action.Work = func(tools any) any {
				return def.Work(params, tools)
			}
		}

		if def.AsyncWork != nil {
			action.AsyncWork = func(ctx context.Context, tools any) (any, error) {
				return def.AsyncWork(ctx, params, tools)
			}
		}

		if hooks != nil {
			action.Hooks = hooks
		}

		return action
	}
}

// BuildReducer returns the state transition function of the named operation.
func (a *Adapter) BuildReducer(def plugin.Definition, name string, initial statepath.Tree) plugin.Reducer {
	types := lifecycle.NewTypes(a.typeFn, name)

	return func(state statepath.Tree, event lifecycle.Event) statepath.Tree {
		if state == nil {
			state = initial
		}

		switch event.Type {
		case types.Start:
			return statepath.Apply(state, statepath.Assignments{
				path(KeyPending, name): true,
			})
		case types.Success:
			writes := statepath.Assignments{
				path(KeyPending, name):       false,
				path(KeyLastSucceeded, name): true,
				path(KeyLastFailed, name):    false,
				path(KeySucceeded, name):     true,
			}

			if resolve.IsSet(def.OnSuccess) {
				merge(writes, resolve.Resolve(def.OnSuccess, event, state))
			} else {
				writes[path(KeyResult, name)] = event.Result
			}

			return statepath.Apply(state, writes)
		case types.Error:
			writes := statepath.Assignments{
				path(KeyPending, name):       false,
				path(KeyLastSucceeded, name): false,
				path(KeyLastFailed, name):    true,
				path(KeyFailed, name):        true,
			}

			if resolve.IsSet(def.OnError) {
				merge(writes, resolve.Resolve(def.OnError, event, state))
			} else {
				writes[path(KeyError, name)] = event.Error
			}

			return statepath.Apply(state, writes)
		default:
			return state
		}
	}
}

// BuildInitialState returns the initial assignments of the named operation.
// Definition.Initial is applied last and overrides every other seed.
func (a *Adapter) BuildInitialState(def plugin.Definition, name string) statepath.Assignments {
	out := statepath.Assignments{
		path(KeyPending, name):       false,
		path(KeyLastSucceeded, name): false,
		path(KeyLastFailed, name):    false,
		path(KeySucceeded, name):     false,
		path(KeyFailed, name):        false,
	}

	if resolve.IsSet(def.OnSuccess) {
		merge(out, resolve.ResolveInitial(def.OnSuccess))
	} else {
		out[path(KeyResult, name)] = nil
	}

	if resolve.IsSet(def.OnError) {
		merge(out, resolve.ResolveInitial(def.OnError))
	} else {
		out[path(KeyError, name)] = nil
	}

	merge(out, def.Initial)

	return out
}

func path(key, name string) string {
	return statepath.Join(key, name)
}

// merge copies src into dst; src wins on conflicts.
func merge(dst, src statepath.Assignments) {
	for k, v := range src {
		dst[k] = v
	}
}
