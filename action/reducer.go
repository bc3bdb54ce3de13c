package action

import (
	"fmt"

	"fluxstate/apperrors"
)

// Reducer folds an Action into a new state of type S. A reducer must never
// return a nil/zero "undefined" state once it has handled Init at least
// once (spec §3); reducers that need to report that invariant violation
// return a non-nil error instead of panicking, consistent with Go's
// explicit error-return idiom.
type Reducer[S any] func(prev S, a Action) (S, error)

// SliceReducer is the untyped reducer shape CombineReducers operates over:
// each slice of the combined tree owns one SliceReducer keyed by slice name.
type SliceReducer func(prev any, a Action) (any, error)

// CombineReducers composes slice reducers into a single Reducer over
// map[string]any, one key per slice — the Go analogue of Redux's
// combineReducers. Each dispatch runs every slice reducer exactly once
// (spec "Exactly one reducer run per dispatch" extends per-slice).
func CombineReducers(reducers map[string]SliceReducer) Reducer[map[string]any] {
	names := make([]string, 0, len(reducers))
	for name := range reducers {
		names = append(names, name)
	}

	return func(prev map[string]any, a Action) (map[string]any, error) {
		next := make(map[string]any, len(reducers))
		for _, name := range names {
			reducer := reducers[name]
			var prevSlice any
			if prev != nil {
				prevSlice = prev[name]
			}

			nextSlice, err := reducer(prevSlice, a)
			if err != nil {
				return nil, fmt.Errorf("slice %q: %w", name, err)
			}
			if nextSlice == nil {
				return nil, apperrors.ReducerReturnedUndefined(
					fmt.Sprintf("slice %q returned an undefined (nil) state", name))
			}
			next[name] = nextSlice
		}
		return next, nil
	}
}
