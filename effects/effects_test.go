package effects

import (
	"testing"

	"fluxstate/action"
	"fluxstate/middleware"
	"fluxstate/observability"
	"fluxstate/store"

	"github.com/stretchr/testify/require"
)

// testState records every action type the reducer sees, in order, so
// tests can assert on what actually reached the bottom of the pipeline.
type testState struct {
	Log []string
}

func testReducer(prev testState, a action.Action) (testState, error) {
	next := testState{Log: append(append([]string{}, prev.Log...), a.Type)}
	return next, nil
}

func newTestStore(t *testing.T, mws ...middleware.Middleware[testState]) *store.Store[testState] {
	t.Helper()
	enhancer := middleware.Apply(mws...)
	st, err := store.New[testState](testReducer, testState{}, enhancer, observability.NewNopLogger())
	require.NoError(t, err)
	return st
}
