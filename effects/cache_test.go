package effects

import (
	"context"
	"testing"
	"time"

	"fluxstate/action"
	"fluxstate/thunk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheMiddlewareStoresPayloadOnFulfilledAndServesItOnNextPending(t *testing.T) {
	// Arrange
	cache, err := NewResponseCache(10, time.Hour, "fetchThing")
	require.NoError(t, err)
	st := newTestStore(t, CacheMiddleware[testState](cache))

	// Act
	_, err = st.Dispatch(action.Action{
		Type:    "fetchThing/fulfilled",
		Payload: "thing-data",
		Meta:    thunk.AsyncMeta{RequestID: "req-1", Arg: "id-1"},
	})
	require.NoError(t, err)

	result, err := st.Dispatch(action.Action{
		Type: "fetchThing/pending",
		Meta: thunk.AsyncMeta{RequestID: "req-2", Arg: "id-1"},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "fetchThing/fulfilled", result.Type)
	assert.Equal(t, "thing-data", result.Payload)
	meta, ok := result.Meta.(thunk.AsyncMeta)
	require.True(t, ok)
	assert.True(t, meta.Cached)
	assert.Equal(t, "req-2", meta.RequestID)
}

func TestCacheMiddlewareMissPassesPendingThrough(t *testing.T) {
	// Arrange
	cache, err := NewResponseCache(10, time.Hour, "fetchThing")
	require.NoError(t, err)
	st := newTestStore(t, CacheMiddleware[testState](cache))

	// Act
	result, err := st.Dispatch(action.Action{
		Type: "fetchThing/pending",
		Meta: thunk.AsyncMeta{RequestID: "req-1", Arg: "id-1"},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "fetchThing/pending", result.Type)
}

func TestCacheMiddlewareExpiresEntriesAfterTTL(t *testing.T) {
	// Arrange
	cache, err := NewResponseCache(10, 5*time.Millisecond, "fetchThing")
	require.NoError(t, err)
	st := newTestStore(t, CacheMiddleware[testState](cache))
	_, err = st.Dispatch(action.Action{
		Type:    "fetchThing/fulfilled",
		Payload: "thing-data",
		Meta:    thunk.AsyncMeta{RequestID: "req-1", Arg: "id-1"},
	})
	require.NoError(t, err)

	// Act
	time.Sleep(15 * time.Millisecond)
	result, err := st.Dispatch(action.Action{
		Type: "fetchThing/pending",
		Meta: thunk.AsyncMeta{RequestID: "req-2", Arg: "id-1"},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "fetchThing/pending", result.Type)
}

func TestCacheMiddlewareIgnoresUnregisteredTypePrefix(t *testing.T) {
	// Arrange
	cache, err := NewResponseCache(10, time.Hour, "fetchThing")
	require.NoError(t, err)
	st := newTestStore(t, CacheMiddleware[testState](cache))

	// Act
	result, err := st.Dispatch(action.Action{
		Type: "fetchOther/pending",
		Meta: thunk.AsyncMeta{RequestID: "req-1", Arg: "id-1"},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "fetchOther/pending", result.Type)
}

func TestCacheMiddlewareSkipsPayloadCreatorOnHitThroughAsyncThunk(t *testing.T) {
	// Arrange
	cache, err := NewResponseCache(10, time.Hour, "things/fetch")
	require.NoError(t, err)
	st := newTestStore(t, thunk.Middleware[testState](nil), CacheMiddleware[testState](cache))

	createCalls := 0
	fetchThing := thunk.AsyncThunk[string, string, testState]{
		TypePrefix: "things/fetch",
		Create: func(arg string, api thunk.AsyncAPI[testState]) (string, error) {
			createCalls++
			return "data-for-" + arg, nil
		},
	}

	// Act: first dispatch is a real miss, second should be served from cache.
	_, err = st.Dispatch(thunk.Wrap(fetchThing.Thunk(context.Background(), "id-1")))
	require.NoError(t, err)
	result, err := st.Dispatch(thunk.Wrap(fetchThing.Thunk(context.Background(), "id-1")))
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 1, createCalls)
	assert.Equal(t, "things/fetch/fulfilled", result.Type)
	assert.Equal(t, "data-for-id-1", result.Payload)
	meta, ok := result.Meta.(thunk.AsyncMeta)
	require.True(t, ok)
	assert.True(t, meta.Cached)
}

func TestResponseCacheEvictsLeastRecentlyUsedBeyondMaxSize(t *testing.T) {
	// Arrange
	cache, err := NewResponseCache(1, time.Hour, "fetchThing")
	require.NoError(t, err)
	cache.store(cacheKey("fetchThing", "id-1"), "one")
	cache.store(cacheKey("fetchThing", "id-2"), "two")

	// Act
	_, hitOne := cache.lookup(cacheKey("fetchThing", "id-1"))
	_, hitTwo := cache.lookup(cacheKey("fetchThing", "id-2"))

	// Assert
	assert.False(t, hitOne)
	assert.True(t, hitTwo)
}
