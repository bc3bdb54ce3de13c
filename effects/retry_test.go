package effects

import (
	"errors"
	"sync"
	"testing"
	"time"

	"fluxstate/action"
	"fluxstate/store"
	"fluxstate/thunk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reruns struct {
	mu   sync.Mutex
	args []any
}

func (r *reruns) record(_ store.DispatchFunc, arg any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.args = append(r.args, arg)
}

func (r *reruns) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.args)
}

func TestRetrierSchedulesRerunAfterRejection(t *testing.T) {
	// Arrange
	rec := &reruns{}
	retrier := NewRetrier(RetryOptions{MaxRetries: 3, RetryDelay: 5 * time.Millisecond}, Registration{
		TypePrefix: "fetchThing",
		Rerun:      rec.record,
	})
	st := newTestStore(t, RetryMiddleware[testState](retrier))

	// Act
	_, err := st.Dispatch(action.Action{
		Type:  "fetchThing/rejected",
		Error: errors.New("boom"),
		Meta:  thunk.AsyncMeta{RequestID: "req-1", Arg: "id-1"},
	})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	// Assert
	assert.Equal(t, 1, rec.count())
}

func TestRetrierClearsAttemptsOnFulfilled(t *testing.T) {
	// Arrange
	rec := &reruns{}
	retrier := NewRetrier(RetryOptions{MaxRetries: 1, RetryDelay: 50 * time.Millisecond}, Registration{
		TypePrefix: "fetchThing",
		Rerun:      rec.record,
	})
	st := newTestStore(t, RetryMiddleware[testState](retrier))
	_, err := st.Dispatch(action.Action{
		Type: "fetchThing/fulfilled",
		Meta: thunk.AsyncMeta{RequestID: "req-1", Arg: "id-1"},
	})

	// Act / Assert
	require.NoError(t, err)
	retrier.mu.Lock()
	_, tracked := retrier.attempts[retryKey("fetchThing", "id-1")]
	retrier.mu.Unlock()
	assert.False(t, tracked)
}

func TestRetrierSkipsWhenRetryConditionRejects(t *testing.T) {
	// Arrange
	rec := &reruns{}
	retrier := NewRetrier(RetryOptions{
		MaxRetries:     3,
		RetryDelay:     5 * time.Millisecond,
		RetryCondition: func(error, action.Action) bool { return false },
	}, Registration{TypePrefix: "fetchThing", Rerun: rec.record})
	st := newTestStore(t, RetryMiddleware[testState](retrier))

	// Act
	_, err := st.Dispatch(action.Action{
		Type:  "fetchThing/rejected",
		Error: errors.New("boom"),
		Meta:  thunk.AsyncMeta{RequestID: "req-1", Arg: "id-1"},
	})
	require.NoError(t, err)
	time.Sleep(15 * time.Millisecond)

	// Assert
	assert.Equal(t, 0, rec.count())
}

func TestRetrierIgnoresUnregisteredTypePrefix(t *testing.T) {
	// Arrange
	rec := &reruns{}
	retrier := NewRetrier(RetryOptions{RetryDelay: 5 * time.Millisecond}, Registration{TypePrefix: "other", Rerun: rec.record})
	st := newTestStore(t, RetryMiddleware[testState](retrier))

	// Act
	_, err := st.Dispatch(action.Action{
		Type:  "fetchThing/rejected",
		Error: errors.New("boom"),
		Meta:  thunk.AsyncMeta{RequestID: "req-1", Arg: "id-1"},
	})
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	// Assert
	assert.Equal(t, 0, rec.count())
}

func TestRetrierCircuitBreakerStopsRetriesAfterConsecutiveFailures(t *testing.T) {
	// Arrange
	rec := &reruns{}
	retrier := NewRetrier(RetryOptions{MaxRetries: 1, RetryDelay: 2 * time.Millisecond}, Registration{
		TypePrefix: "fetchThing",
		Rerun:      rec.record,
	})
	st := newTestStore(t, RetryMiddleware[testState](retrier))
	reject := func(reqID, arg string) {
		_, err := st.Dispatch(action.Action{
			Type:  "fetchThing/rejected",
			Error: errors.New("boom"),
			Meta:  thunk.AsyncMeta{RequestID: reqID, Arg: arg},
		})
		require.NoError(t, err)
	}

	// Act: each rejection uses a distinct arg so the per-key attempts cap
	// never kicks in; two failures trip the shared per-typePrefix breaker
	// (ConsecutiveFailures >= MaxRetries+1 == 2), so the third observes it
	// already open.
	reject("req-1", "id-1")
	reject("req-2", "id-2")
	reject("req-3", "id-3")
	time.Sleep(15 * time.Millisecond)

	// Assert
	assert.LessOrEqual(t, rec.count(), 2)
}

func TestRetrierStopCancelsPendingTimer(t *testing.T) {
	// Arrange
	rec := &reruns{}
	retrier := NewRetrier(RetryOptions{MaxRetries: 3, RetryDelay: 10 * time.Millisecond}, Registration{
		TypePrefix: "fetchThing",
		Rerun:      rec.record,
	})
	st := newTestStore(t, RetryMiddleware[testState](retrier))
	_, err := st.Dispatch(action.Action{
		Type:  "fetchThing/rejected",
		Error: errors.New("boom"),
		Meta:  thunk.AsyncMeta{RequestID: "req-1", Arg: "id-1"},
	})
	require.NoError(t, err)

	// Act
	retrier.Stop("fetchThing", "id-1")
	time.Sleep(20 * time.Millisecond)

	// Assert
	assert.Equal(t, 0, rec.count())
}
