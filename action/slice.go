package action

import "strings"

// CaseReducer handles one action case within a slice: given the previous
// slice state and the dispatched payload, it returns the next slice state.
type CaseReducer[S any] func(prev S, payload any) S

// SliceConfig describes a slice: its name (used as the action-type prefix,
// "<name>/<case>"), its initial state, and one CaseReducer per case name.
type SliceConfig[S any] struct {
	Name         string
	InitialState S
	Reducers     map[string]CaseReducer[S]
}

// Slice bundles a generated Reducer with the action creators for each case,
// mirroring the teacher's one-struct-per-intent command/query shape
// collapsed into a single generic primitive.
type Slice[S any] struct {
	Name         string
	InitialState S
	Reducer      SliceReducer
	Actions      map[string]Creator
}

// NewSlice builds a Slice from cfg: one action creator and one reducer case
// per configured case name, action types namespaced "<name>/<case>".
func NewSlice[S any](cfg SliceConfig[S]) *Slice[S] {
	actions := make(map[string]Creator, len(cfg.Reducers))
	for caseName := range cfg.Reducers {
		actionType := cfg.Name + "/" + caseName
		actions[caseName] = New(actionType)
	}

	reducer := func(prev any, a Action) (any, error) {
		state, ok := prev.(S)
		if !ok {
			state = cfg.InitialState
		}

		caseName, matches := caseFor(cfg.Name, a.Type)
		if !matches {
			return state, nil
		}
		caseReducer, ok := cfg.Reducers[caseName]
		if !ok {
			return state, nil
		}
		return caseReducer(state, a.Payload), nil
	}

	return &Slice[S]{
		Name:         cfg.Name,
		InitialState: cfg.InitialState,
		Reducer:      reducer,
		Actions:      actions,
	}
}

func caseFor(sliceName, actionType string) (caseName string, ok bool) {
	prefix := sliceName + "/"
	if !strings.HasPrefix(actionType, prefix) {
		return "", false
	}
	return strings.TrimPrefix(actionType, prefix), true
}
