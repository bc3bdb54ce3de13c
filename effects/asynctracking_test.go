package effects

import (
	"sync"
	"testing"

	"fluxstate/action"
	"fluxstate/thunk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncTrackerMarksGlobalAndByTypeWhileInFlight(t *testing.T) {
	// Arrange
	tracker := NewAsyncTracker(AsyncTrackingCallbacks{})
	st := newTestStore(t, AsyncTrackingMiddleware[testState](tracker))

	// Act
	_, err := st.Dispatch(action.Action{
		Type: "fetchThing/pending",
		Meta: thunk.AsyncMeta{RequestID: "req-1"},
	})

	// Assert
	require.NoError(t, err)
	state := tracker.State()
	assert.True(t, state.Global)
	assert.True(t, state.ByType["fetchThing"])
	assert.True(t, state.ByRequestID["req-1"])
}

func TestAsyncTrackerClearsOnFulfilled(t *testing.T) {
	// Arrange
	tracker := NewAsyncTracker(AsyncTrackingCallbacks{})
	st := newTestStore(t, AsyncTrackingMiddleware[testState](tracker))
	_, err := st.Dispatch(action.Action{Type: "fetchThing/pending", Meta: thunk.AsyncMeta{RequestID: "req-1"}})
	require.NoError(t, err)

	// Act
	_, err = st.Dispatch(action.Action{Type: "fetchThing/fulfilled", Meta: thunk.AsyncMeta{RequestID: "req-1"}})

	// Assert
	require.NoError(t, err)
	state := tracker.State()
	assert.False(t, state.Global)
	assert.False(t, state.ByType["fetchThing"])
	assert.False(t, state.ByRequestID["req-1"])
}

func TestAsyncTrackerByTypeStaysTrueWhileASecondRequestOfSameTypeIsInFlight(t *testing.T) {
	// Arrange
	tracker := NewAsyncTracker(AsyncTrackingCallbacks{})
	st := newTestStore(t, AsyncTrackingMiddleware[testState](tracker))
	_, err := st.Dispatch(action.Action{Type: "fetchThing/pending", Meta: thunk.AsyncMeta{RequestID: "req-1"}})
	require.NoError(t, err)
	_, err = st.Dispatch(action.Action{Type: "fetchThing/pending", Meta: thunk.AsyncMeta{RequestID: "req-2"}})
	require.NoError(t, err)

	// Act
	_, err = st.Dispatch(action.Action{Type: "fetchThing/fulfilled", Meta: thunk.AsyncMeta{RequestID: "req-1"}})

	// Assert
	require.NoError(t, err)
	state := tracker.State()
	assert.True(t, state.Global)
	assert.True(t, state.ByType["fetchThing"])
	assert.False(t, state.ByRequestID["req-1"])
	assert.True(t, state.ByRequestID["req-2"])
}

func TestAsyncTrackerInvokesCallbacksForEachPhase(t *testing.T) {
	// Arrange
	var mu sync.Mutex
	var seen []string
	callbacks := AsyncTrackingCallbacks{
		OnStart: func(a action.Action, s AsyncTrackingState) { mu.Lock(); seen = append(seen, "start"); mu.Unlock() },
		OnEnd:   func(a action.Action, s AsyncTrackingState) { mu.Lock(); seen = append(seen, "end"); mu.Unlock() },
		OnError: func(a action.Action, s AsyncTrackingState) { mu.Lock(); seen = append(seen, "error"); mu.Unlock() },
	}
	tracker := NewAsyncTracker(callbacks)
	st := newTestStore(t, AsyncTrackingMiddleware[testState](tracker))

	// Act
	_, err := st.Dispatch(action.Action{Type: "fetchThing/pending", Meta: thunk.AsyncMeta{RequestID: "req-1"}})
	require.NoError(t, err)
	_, err = st.Dispatch(action.Action{Type: "fetchThing/rejected", Meta: thunk.AsyncMeta{RequestID: "req-1"}})
	require.NoError(t, err)

	// Assert
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"start", "error"}, seen)
}

func TestAsyncTrackerIgnoresActionsWithoutALifecycleSuffix(t *testing.T) {
	// Arrange
	tracker := NewAsyncTracker(AsyncTrackingCallbacks{})
	st := newTestStore(t, AsyncTrackingMiddleware[testState](tracker))

	// Act
	_, err := st.Dispatch(action.Action{Type: "counter/incremented"})

	// Assert
	require.NoError(t, err)
	assert.False(t, tracker.State().Global)
}
