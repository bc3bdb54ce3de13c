package di

import (
	"fluxstate/action"
	"fluxstate/apiengine"
	"fluxstate/entity"
)

// RootState is the combined root state tree (spec C3's combineReducers
// analogue), one key per slice.
type RootState = map[string]any

const (
	sliceThings = "things"
	sliceAPI    = "catalog"
)

func catalogSliceReducer() action.SliceReducer {
	inner := apiengine.Reducer(sliceAPI)
	return func(prev any, a action.Action) (any, error) {
		state, ok := prev.(apiengine.State)
		if !ok {
			state = apiengine.InitialState()
		}
		return inner(state, a)
	}
}

func rootReducer() action.Reducer[RootState] {
	return action.CombineReducers(map[string]action.SliceReducer{
		sliceThings: thingsReducer,
		sliceAPI:    catalogSliceReducer(),
	})
}

func selectThings(s RootState) entity.Collection[Thing] {
	collection, _ := s[sliceThings].(entity.Collection[Thing])
	return collection
}

func selectCatalogSlice(s RootState) apiengine.State {
	st, _ := s[sliceAPI].(apiengine.State)
	return st
}
