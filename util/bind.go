package util

import "fluxstate/action"

// Dispatcher is the minimal shape BindActionCreators needs from a store:
// something that accepts an action.Action and returns it (or an error, for
// stores that validate synchronously).
type Dispatcher func(action.Action) (action.Action, error)

// BoundCreator is an action creator that also dispatches itself, returning
// whatever the underlying Dispatcher returned.
type BoundCreator func(payload any) (action.Action, error)

// BindActionCreators wraps every creator in creators so that calling it both
// builds and dispatches the action in one step, the Go analogue of Redux's
// bindActionCreators.
func BindActionCreators(creators map[string]action.Creator, dispatch Dispatcher) map[string]BoundCreator {
	bound := make(map[string]BoundCreator, len(creators))
	for name, creator := range creators {
		creator := creator
		bound[name] = func(payload any) (action.Action, error) {
			return dispatch(creator(payload))
		}
	}
	return bound
}
