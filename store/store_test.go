package store

import (
	"testing"

	"fluxstate/action"
	"fluxstate/apperrors"
	"fluxstate/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterReducer(prev int, a action.Action) (int, error) {
	switch a.Type {
	case action.Init:
		return prev, nil
	case "counter/inc":
		return prev + 1, nil
	default:
		return prev, nil
	}
}

func TestNewRunsInitOnConstruction(t *testing.T) {
	// Act
	st, err := New[int](counterReducer, 5, nil, observability.NewNopLogger())

	// Assert
	require.NoError(t, err)
	state, err := st.GetState()
	require.NoError(t, err)
	assert.Equal(t, 5, state)
}

func TestDispatchRunsReducerExactlyOnce(t *testing.T) {
	// Arrange
	st, err := New[int](counterReducer, 0, nil, observability.NewNopLogger())
	require.NoError(t, err)

	// Act
	_, err = st.Dispatch(action.Action{Type: "counter/inc"})
	require.NoError(t, err)
	state, _ := st.GetState()

	// Assert
	assert.Equal(t, 1, state)
}

func TestDispatchRejectsActionWithEmptyType(t *testing.T) {
	// Arrange
	st, err := New[int](counterReducer, 0, nil, observability.NewNopLogger())
	require.NoError(t, err)

	// Act
	_, err = st.Dispatch(action.Action{})

	// Assert
	assert.True(t, apperrors.IsInvalidAction(err))
}

func TestSubscribeNotifiesListenersOnDispatch(t *testing.T) {
	// Arrange
	st, err := New[int](counterReducer, 0, nil, observability.NewNopLogger())
	require.NoError(t, err)
	calls := 0
	unsubscribe, err := st.Subscribe(func() { calls++ })
	require.NoError(t, err)

	// Act
	_, err = st.Dispatch(action.Action{Type: "counter/inc"})
	require.NoError(t, err)
	_, err = st.Dispatch(action.Action{Type: "counter/inc"})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 2, calls)

	// unsubscribe stops further notifications
	require.NoError(t, unsubscribe())
	_, err = st.Dispatch(action.Action{Type: "counter/inc"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSubscribeSeesSnapshotTakenAtNotificationStart(t *testing.T) {
	// Arrange: a listener that subscribes a second listener mid-notification
	// must not have the new listener invoked in the same pass (spec §3:
	// "the listener set used for a notification is the snapshot taken at
	// the start of that notification pass").
	st, err := New[int](counterReducer, 0, nil, observability.NewNopLogger())
	require.NoError(t, err)

	lateCalls := 0
	_, err = st.Subscribe(func() {
		_, subErr := st.Subscribe(func() { lateCalls++ })
		assert.NoError(t, subErr)
	})
	require.NoError(t, err)

	// Act
	_, err = st.Dispatch(action.Action{Type: "counter/inc"})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 0, lateCalls)

	_, err = st.Dispatch(action.Action{Type: "counter/inc"})
	require.NoError(t, err)
	assert.Equal(t, 1, lateCalls)
}

func TestDispatchFailsReducerReturnedUndefined(t *testing.T) {
	// Arrange
	nilOnInc := func(prev any, a action.Action) (any, error) {
		if a.Type == "boom" {
			return nil, nil
		}
		if prev == nil {
			return "initial", nil
		}
		return prev, nil
	}
	combined := action.CombineReducers(map[string]action.SliceReducer{"s": nilOnInc})
	st, err := New[map[string]any](combined, nil, nil, observability.NewNopLogger())
	require.NoError(t, err)

	// Act
	_, err = st.Dispatch(action.Action{Type: "boom"})

	// Assert
	assert.True(t, apperrors.IsReducerReturnedUndefined(err))
}
