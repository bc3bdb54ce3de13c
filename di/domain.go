// Package di wires the core packages (store, middleware, thunk, entity,
// persist, apiengine, effects) into one runnable Container, the Go
// counterpart of createStore-plus-configureStore wiring a real app does by
// hand. Thing/fetchThing/catalog below are a minimal worked example
// exercising that wiring end to end, not a feature of the core library.
//
// Grounded on internal/di/container.go's manual, non-generated wiring
// (NewContainer building every dependency itself rather than relying on
// `wire` codegen) and internal/di/wire.go/wire_sets.go's provider-function
// shape, which this package mirrors for the cases someone does run `wire`.
package di

import (
	"context"
	"sync"
	"time"

	"fluxstate/action"
	"fluxstate/apiengine"
	"fluxstate/apperrors"
	"fluxstate/entity"
	"fluxstate/thunk"
	"fluxstate/transport"
)

// Thing is the example entity the demo catalog manages.
type Thing struct {
	ID   string
	Name string
}

var thingsAdapter = entity.NewAdapter(
	func(t Thing) string { return t.ID },
	func(a, b Thing) bool { return a.Name < b.Name },
)

const fetchThingTypePrefix = "things/fetchThing"

// fetchThing is the async-thunk demo: a plain thunk.AsyncThunk (not routed
// through apiengine) so the effects middlewares (retry, async-tracking,
// cache, batching) have a real "<typePrefix>/pending|fulfilled|rejected"
// lifecycle to observe, per spec §4.7.
func fetchThing(binder thingLookup) thunk.AsyncThunk[string, Thing, RootState] {
	return thunk.AsyncThunk[string, Thing, RootState]{
		TypePrefix: fetchThingTypePrefix,
		Create: func(id string, _ thunk.AsyncAPI[RootState]) (Thing, error) {
			return binder.Lookup(context.Background(), id)
		},
	}
}

// thingLookup is the seam fetchThing's payload creator runs against; the
// container supplies an in-memory lookup so the demo never depends on a
// real network call.
type thingLookup interface {
	Lookup(ctx context.Context, id string) (Thing, error)
}

// memoryThingLookup serves a fixed seed set, standing in for a real
// service call. cmd/server's HTTP handlers run concurrently, so reads and
// the one write path (Rename) share a mutex.
type memoryThingLookup struct {
	mu   sync.RWMutex
	seed map[string]Thing
}

func newMemoryThingLookup() *memoryThingLookup {
	return &memoryThingLookup{seed: map[string]Thing{
		"1": {ID: "1", Name: "first thing"},
		"2": {ID: "2", Name: "second thing"},
	}}
}

func (l *memoryThingLookup) Lookup(_ context.Context, id string) (Thing, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if t, ok := l.seed[id]; ok {
		return t, nil
	}
	return Thing{}, apperrors.BaseQuery("thing not found: "+id, nil)
}

// Rename overwrites id's Name, the backing mutation cmd/server's PUT
// /things/{id} handler performs before its BaseQuery round-trip returns.
func (l *memoryThingLookup) Rename(_ context.Context, id, name string) (Thing, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.seed[id]
	if !ok {
		return Thing{}, apperrors.BaseQuery("thing not found: "+id, nil)
	}
	t.Name = name
	l.seed[id] = t
	return t, nil
}

func thingsReducer(prev any, a action.Action) (any, error) {
	collection, ok := prev.(entity.Collection[Thing])
	if !ok {
		collection = thingsAdapter.InitialState()
	}

	if a.Type != fetchThingTypePrefix+"/fulfilled" {
		return collection, nil
	}
	thing, ok := a.Payload.(Thing)
	if !ok {
		return collection, nil
	}
	return thingsAdapter.UpsertOne(collection, thing), nil
}

// TagThing is the catalog api's one declared tag type.
const TagThing apiengine.TagType = "Thing"

// catalogAPI registers a getThing query and a renameThing mutation against
// api, demonstrating tag-based invalidation (spec §4.6): renameThing
// invalidates {Thing, id}, which the query cache uses to refetch the next
// time it is subscribed.
func catalogAPI(api *apiengine.Api[RootState]) {
	apiengine.RegisterQuery(api, apiengine.QueryDef[string, Thing, RootState]{
		Name: "getThing",
		Query: func(id string) transport.Args {
			return transport.Args{Method: "GET", Path: "/things/" + id}
		},
		TransformResponse: func(raw any) (Thing, error) {
			t, _ := raw.(Thing)
			return t, nil
		},
		ProvidesTags: func(_ Thing, id string) []apiengine.Tag {
			return []apiengine.Tag{{Type: TagThing, ID: id}}
		},
		KeepUnusedDataFor: 30 * time.Second,
	})

	apiengine.RegisterMutation(api, apiengine.MutationDef[Thing, Thing, RootState]{
		Name: "renameThing",
		Query: func(t Thing) transport.Args {
			return transport.Args{Method: "PUT", Path: "/things/" + t.ID, Body: t}
		},
		TransformResponse: func(raw any) (Thing, error) {
			t, _ := raw.(Thing)
			return t, nil
		},
		InvalidatesTags: func(t Thing, _ Thing) []apiengine.Tag {
			return []apiengine.Tag{{Type: TagThing, ID: t.ID}}
		},
	})
}
