// Package thunk implements spec component C5: the thunk middleware, the
// async-thunk lifecycle factory, and the polling/search/paginated/batched/
// dependent/error-boundary helper thunks built on top of it.
//
// Grounded on application/sagas/saga.go (step execution order, retry-with-
// delay, reverse-order compensation) for the Saga helper, and on
// application/sagas/create_node_saga.go for the builder-style composition
// pattern those steps follow.
package thunk

import (
	"fluxstate/action"
	"fluxstate/apperrors"
	"fluxstate/middleware"
	"fluxstate/store"
)

// ActionType is the reserved action type a Func is wrapped in before being
// handed to store.Dispatch, so the thunk middleware can recognize it inside
// the ordinary Action-shaped pipeline (spec §4.3: "if the dispatched value
// is a function, invoke it").
const ActionType = "@@THUNK"

// Func is a thunk: side-effecting code dispatched instead of a plain
// action, invoked with (dispatch, getState, extraArgument) and returning
// its own result.
type Func[S any] func(dispatch Dispatch[S], getState store.GetStateFunc[S], extra any) (any, error)

// Dispatch is the thunk-aware dispatch handed to a running thunk:
// dispatching an action.Action behaves as an ordinary dispatch; dispatching
// a Func recurses into the thunk middleware without round-tripping through
// the action-shaped pipeline.
type Dispatch[S any] func(d any) (any, error)

// Wrap packages fn as an action.Action so it can travel through an
// ordinary store.DispatchFunc; the middleware built by Middleware unwraps
// it. Dispatching a wrapped thunk through a store with no thunk middleware
// installed fails like any other action nothing recognizes.
func Wrap[S any](fn Func[S]) action.Action {
	return action.Action{Type: ActionType, Payload: fn}
}

// Middleware builds the thunk middleware (spec §4.3). An action whose Type
// is ActionType carries a Func in Payload; the middleware invokes it
// directly instead of forwarding to next and reports its result through the
// returned action's Payload/Error. Any other action passes through
// unchanged.
func Middleware[S any](extra any) middleware.Middleware[S] {
	return func(api middleware.API[S]) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			var thunkDispatch Dispatch[S]
			thunkDispatch = func(d any) (any, error) {
				switch v := d.(type) {
				case Func[S]:
					return v(thunkDispatch, api.GetState, extra)
				case action.Action:
					a, err := api.Dispatch(v)
					return a, err
				default:
					return nil, apperrors.InvalidAction("thunk dispatch: value is neither an action.Action nor a thunk.Func")
				}
			}

			return func(a action.Action) (action.Action, error) {
				if a.Type != ActionType {
					return next(a)
				}
				fn, ok := a.Payload.(Func[S])
				if !ok {
					return action.Action{}, apperrors.InvalidAction("thunk action payload is not a thunk.Func")
				}
				result, err := fn(thunkDispatch, api.GetState, extra)
				if terminal, ok := result.(action.Action); ok {
					return terminal, err
				}
				return action.Action{Type: a.Type, Payload: result, Error: err}, nil
			}
		}
	}
}
