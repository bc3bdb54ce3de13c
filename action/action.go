// Package action defines the action/reducer primitives (spec C1): the
// action shape, reducer composition, and a createSlice-style helper that
// bundles action creators with the reducer that handles them.
package action

import "fluxstate/apperrors"

// Init is the reserved action type dispatched once, synchronously, when a
// store is constructed, so every reducer gets a chance to report its
// initial state (spec §3, "Reducer").
const Init = "@@INIT"

// Action is the single concrete action shape flowing through the pipeline.
// Type is required; Payload, Error, and Meta are optional and carry
// whatever the dispatching code needs.
type Action struct {
	Type    string
	Payload any
	Error   any
	Meta    any
}

// Validate reports a KindInvalidAction error when a is missing a non-empty
// Type, matching spec §3: "Actions whose type is empty ... must fail
// dispatch with a kind-Invalid error."
func Validate(a Action) error {
	if a.Type == "" {
		return apperrors.InvalidAction("action must have a non-empty Type")
	}
	return nil
}

// Creator is a function that builds an Action from a payload, the shape
// every createSlice/createAsyncThunk action creator conforms to.
type Creator func(payload any) Action

// New builds a plain action creator for actionType, matching the teacher's
// command/query "one struct per intent" convention translated to the
// generic action shape.
func New(actionType string) Creator {
	return func(payload any) Action {
		return Action{Type: actionType, Payload: payload}
	}
}
