package effects

import (
	"testing"
	"time"

	"fluxstate/action"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func thingAdded(name string) action.Action {
	return action.Action{Type: "things/added", Payload: name}
}

func TestBatchingMiddlewareHoldsBatchableActionsUntilSizeReached(t *testing.T) {
	// Arrange
	b := NewBatcher(func(a action.Action) bool { return a.Type == "things/added" }, 2, time.Hour)
	st := newTestStore(t, BatchingMiddleware[testState](b))

	// Act
	_, err := st.Dispatch(thingAdded("a"))
	require.NoError(t, err)
	state, err := st.GetState()
	require.NoError(t, err)
	assert.NotContains(t, state.Log, "things/added")

	_, err = st.Dispatch(thingAdded("b"))
	require.NoError(t, err)

	// Assert
	state, err = st.GetState()
	require.NoError(t, err)
	assert.Contains(t, state.Log, BatchActionType)
}

func TestBatchingMiddlewareFlushesAfterFlushInterval(t *testing.T) {
	// Arrange
	b := NewBatcher(func(a action.Action) bool { return a.Type == "things/added" }, 100, 10*time.Millisecond)
	st := newTestStore(t, BatchingMiddleware[testState](b))

	// Act
	_, err := st.Dispatch(thingAdded("a"))
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)

	// Assert
	state, err := st.GetState()
	require.NoError(t, err)
	assert.Contains(t, state.Log, BatchActionType)
}

func TestBatchingMiddlewarePassesNonBatchableActionsThroughUnchanged(t *testing.T) {
	// Arrange
	b := NewBatcher(func(a action.Action) bool { return a.Type == "things/added" }, 2, time.Hour)
	st := newTestStore(t, BatchingMiddleware[testState](b))

	// Act
	_, err := st.Dispatch(action.Action{Type: "other/event"})
	require.NoError(t, err)

	// Assert
	state, err := st.GetState()
	require.NoError(t, err)
	assert.Contains(t, state.Log, "other/event")
	assert.NotContains(t, state.Log, BatchActionType)
}

func TestUnwrapBatchAppliesEachInnerActionInOrder(t *testing.T) {
	// Arrange
	reducer := UnwrapBatch[testState](testReducer)

	// Act
	state, err := reducer(testState{}, action.Action{
		Type: BatchActionType,
		Payload: BatchPayload{Actions: []action.Action{
			{Type: "things/added"},
			{Type: "things/removed"},
		}},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"things/added", "things/removed"}, state.Log)
}

func TestBatcherFlushIsNoOpWhenBufferEmpty(t *testing.T) {
	// Arrange
	b := NewBatcher(func(action.Action) bool { return true }, 10, time.Hour)

	// Act / Assert: nothing to flush, nothing to dispatch, no panic.
	b.Flush()
}
