package thunk

import (
	"context"
	"errors"
	"testing"
	"time"

	"fluxstate/action"
	"fluxstate/middleware"
	"fluxstate/observability"
	"fluxstate/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiState struct {
	Statuses []string
}

func apiReducer(prev apiState, a action.Action) (apiState, error) {
	return apiState{Statuses: append(append([]string{}, prev.Statuses...), a.Type)}, nil
}

func newAPIStore(t *testing.T) *store.Store[apiState] {
	t.Helper()
	enhancer := middleware.Apply(Middleware[apiState](nil))
	st, err := store.New[apiState](apiReducer, apiState{}, enhancer, observability.NewNopLogger())
	require.NoError(t, err)
	return st
}

func TestAsyncThunkDispatchesPendingThenFulfilled(t *testing.T) {
	// Arrange
	st := newAPIStore(t)
	fetchThing := AsyncThunk[string, string, apiState]{
		TypePrefix: "things/fetch",
		Create: func(arg string, api AsyncAPI[apiState]) (string, error) {
			return "data-for-" + arg, nil
		},
	}

	// Act
	_, err := st.Dispatch(Wrap(fetchThing.Thunk(context.Background(), "x")))

	// Assert
	require.NoError(t, err)
	state, _ := st.GetState()
	assert.Equal(t, []string{"things/fetch/pending", "things/fetch/fulfilled"}, state.Statuses)
}

func TestAsyncThunkConditionSkipsPendingAndFulfilled(t *testing.T) {
	// Arrange
	st := newAPIStore(t)
	creatorCalled := false
	fetchThing := AsyncThunk[string, string, apiState]{
		TypePrefix: "things/fetch",
		Create: func(arg string, api AsyncAPI[apiState]) (string, error) {
			creatorCalled = true
			return "data", nil
		},
		Options: AsyncThunkOptions[string, apiState]{
			Condition: func(arg string, getState store.GetStateFunc[apiState]) bool { return false },
		},
	}

	// Act
	_, err := st.Dispatch(Wrap(fetchThing.Thunk(context.Background(), "x")))

	// Assert
	require.NoError(t, err)
	assert.False(t, creatorCalled)
	state, _ := st.GetState()
	assert.Equal(t, []string{"things/fetch/conditionRejected"}, state.Statuses)
}

func TestAsyncThunkRejectWithValueSetsMetaFlag(t *testing.T) {
	// Arrange
	st := newAPIStore(t)
	var capturedMeta AsyncMeta
	fetchThing := AsyncThunk[string, string, apiState]{
		TypePrefix: "things/fetch",
		Create: func(arg string, api AsyncAPI[apiState]) (string, error) {
			return "", api.RejectWithValue("not found")
		},
	}

	fn := fetchThing.Thunk(context.Background(), "missing")
	wrapped := Func[apiState](func(dispatch Dispatch[apiState], getState store.GetStateFunc[apiState], extra any) (any, error) {
		result, err := fn(func(d any) (any, error) {
			if a, ok := d.(action.Action); ok && a.Type == "things/fetch/rejected" {
				capturedMeta = a.Meta.(AsyncMeta)
			}
			return dispatch(d)
		}, getState, extra)
		return result, err
	})

	// Act
	_, err := st.Dispatch(Wrap(wrapped))

	// Assert
	require.NoError(t, err)
	assert.True(t, capturedMeta.RejectedWithValue)
}

func TestAsyncThunkUncaughtErrorRejectsWithErrorField(t *testing.T) {
	// Arrange
	st := newAPIStore(t)
	boom := errors.New("boom")
	fetchThing := AsyncThunk[string, string, apiState]{
		TypePrefix: "things/fetch",
		Create: func(arg string, api AsyncAPI[apiState]) (string, error) {
			return "", boom
		},
	}

	// Act
	resultAction, err := st.Dispatch(Wrap(fetchThing.Thunk(context.Background(), "x")))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "things/fetch/rejected", resultAction.Type)
	assert.Equal(t, boom, resultAction.Error)
}

func TestStartAbortCancelsPayloadCreatorContext(t *testing.T) {
	// Arrange
	st := newAPIStore(t)
	fetchThing := AsyncThunk[string, string, apiState]{
		TypePrefix: "things/fetch",
		Create: func(arg string, api AsyncAPI[apiState]) (string, error) {
			<-api.Context.Done()
			return "", api.Context.Err()
		},
	}

	dispatch := store.DispatchFunc(func(a action.Action) (action.Action, error) { return st.Dispatch(a) })

	// Act
	handle := Start[string, string, apiState](dispatch, context.Background(), fetchThing, "x")
	handle.Abort("cancelled by caller")

	select {
	case terminal := <-handle.Settled:
		// Assert
		assert.Equal(t, "things/fetch/rejected", terminal.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("thunk did not settle after abort")
	}
}
