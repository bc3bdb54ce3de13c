// Package middleware implements spec component C4: the right-to-left
// middleware compose chain wrapped around a store's dispatch.
//
// Grounded on application/commands/bus/command_bus.go's Middleware/Pipeline
// (Pipeline.Execute wraps a handler in reverse middleware order — the
// teacher's own compose direction matches spec §4.2 exactly) and on
// application/mediator/behaviors.go's pre/post-processing Behavior shape,
// generalized from a single command handler to an entire dispatch chain.
package middleware

import (
	"fluxstate/action"
	"fluxstate/apperrors"
	"fluxstate/store"
)

// API is the {dispatch, getState} pair spec §4.2 hands to every middleware
// factory. Dispatch is the final, composed dispatch, enabling re-entry; see
// the guard in Apply for the construction-time exception.
type API[S any] struct {
	Dispatch store.DispatchFunc
	GetState store.GetStateFunc[S]
}

// Middleware is a factory: given the store's {dispatch, getState}, it
// returns a function that wraps the next dispatcher in the chain. This is
// the Go shape of Redux middleware, collapsed from the curried
// `store => next => action` form into one factory taking API directly.
type Middleware[S any] func(api API[S]) func(next store.DispatchFunc) store.DispatchFunc

// Apply builds a store.Enhancer that wires mws into a store's dispatch
// chain. Composition is right-to-left per spec §4.2: mws[0] is outermost
// (it sees the action first), the last middleware wraps closest to the
// base reducer dispatch — the same order command_bus.Pipeline.Execute
// applies its middlewares in.
//
// During factory construction (while Apply is still wiring the chain),
// calling api.Dispatch fails kind-PipelineConstructionViolation; once
// construction completes, api.Dispatch is the full composed chain,
// enabling middlewares to safely re-dispatch.
func Apply[S any](mws ...Middleware[S]) store.Enhancer[S] {
	return func(next store.Creator[S]) store.Creator[S] {
		return func(reducer action.Reducer[S], preloaded S) (*store.Store[S], error) {
			st, err := next(reducer, preloaded)
			if err != nil {
				return nil, err
			}

			constructing := true
			guardedDispatch := func(a action.Action) (action.Action, error) {
				if constructing {
					return action.Action{}, apperrors.PipelineConstruction(
						"dispatch called from within a middleware factory before the pipeline finished wiring")
				}
				return st.Dispatch(a)
			}

			api := API[S]{
				Dispatch: guardedDispatch,
				GetState: func() S {
					state, _ := st.GetState()
					return state
				},
			}

			chain := store.DispatchFunc(st.BaseDispatch)
			for i := len(mws) - 1; i >= 0; i-- {
				chain = mws[i](api)(chain)
			}

			constructing = false
			st.ReplaceDispatch(chain)
			return st, nil
		}
	}
}
