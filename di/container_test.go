package di

import (
	"context"
	"testing"

	"fluxstate/persist"
	"fluxstate/store"
	"fluxstate/thunk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContainer(t *testing.T) *Container {
	t.Helper()
	c, err := NewContainer("")
	require.NoError(t, err)
	return c
}

func TestNewContainerBuildsAStoreWithEmptySlices(t *testing.T) {
	// Arrange / Act
	c := newTestContainer(t)

	// Assert
	state, err := c.Store.GetState()
	require.NoError(t, err)
	assert.Empty(t, selectThings(state).IDs)
}

func TestContainerFetchThingUpsertsIntoThingsSlice(t *testing.T) {
	// Arrange
	c := newTestContainer(t)
	handle := thunk.Start(c.Store.Dispatch, context.Background(), c.FetchThing, "1")

	// Act
	terminal := <-handle.Settled

	// Assert
	assert.Equal(t, fetchThingTypePrefix+"/fulfilled", terminal.Type)
	state, err := c.Store.GetState()
	require.NoError(t, err)
	thing, ok := selectThings(state).Entities["1"]
	require.True(t, ok)
	assert.Equal(t, "first thing", thing.Name)
}

func TestContainerFetchThingRejectsUnknownID(t *testing.T) {
	// Arrange
	c := newTestContainer(t)
	handle := thunk.Start(c.Store.Dispatch, context.Background(), c.FetchThing, "missing")

	// Act
	terminal := <-handle.Settled

	// Assert
	assert.Equal(t, fetchThingTypePrefix+"/rejected", terminal.Type)
}

func TestContainerShutdownFlushesPersister(t *testing.T) {
	// Arrange
	c := newTestContainer(t)

	// Act / Assert
	assert.NoError(t, c.Shutdown(context.Background()))
}

// buildStoreOverPersister assembles a minimal store sharing binder's
// backing data through a fresh persist.Persister, standing in for one
// process's worth of container wiring.
func buildStoreOverPersister(t *testing.T, persister *persist.Persister[RootState]) *store.Store[RootState] {
	t.Helper()
	enhancer := persist.Enhancer[RootState](persister)
	st, err := store.New(rootReducer(), RootState{}, enhancer, nil)
	require.NoError(t, err)
	return st
}

func TestPersisterRehydratesThingsSliceAcrossStoreInstances(t *testing.T) {
	// Arrange: one binder shared by two persisters, the way a process
	// restart reopens the same backing file/table.
	binder := ProvideBinder()
	cfg, err := ProvideConfig("")
	require.NoError(t, err)
	logger, err := ProvideLogger()
	require.NoError(t, err)

	firstPersister := ProvidePersister(cfg, binder, logger)
	firstStore := buildStoreOverPersister(t, firstPersister)

	lookup := ProvideThingLookup()
	fetchThingThunk := ProvideFetchThing(lookup)
	handle := thunk.Start(firstStore.Dispatch, context.Background(), fetchThingThunk, "2")
	<-handle.Settled
	firstPersister.Flush(context.Background())

	// Act: a second store, built over a second persister reading the same
	// binder key, should rehydrate what the first one wrote.
	secondPersister := ProvidePersister(cfg, binder, logger)
	secondStore := buildStoreOverPersister(t, secondPersister)

	// Assert
	state, err := secondStore.GetState()
	require.NoError(t, err)
	thing, ok := selectThings(state).Entities["2"]
	require.True(t, ok)
	assert.Equal(t, "second thing", thing.Name)
}
