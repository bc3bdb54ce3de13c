package di

import "github.com/google/wire"

// SuperSet combines every provider this package exposes, mirroring the
// teacher's wire_sets.go SuperSet — compiled into `di.wire.go`'s injector
// by `wire`, never by the regular build (see container.go for the
// hand-written equivalent actually used at runtime).
var SuperSet = wire.NewSet(
	ConfigProviders,
	StorageProviders,
	DomainProviders,
	MiddlewareProviders,
)

// ConfigProviders supplies the foundation layer other providers build on.
var ConfigProviders = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideMetrics,
)

// StorageProviders supplies the persistence layer.
var StorageProviders = wire.NewSet(
	ProvideBinder,
	ProvidePersister,
)

// DomainProviders supplies the catalog demo's domain collaborators.
var DomainProviders = wire.NewSet(
	ProvideBaseQuery,
	ProvideAPI,
	ProvideThingLookup,
	ProvideFetchThing,
)

// MiddlewareProviders supplies the ancillary effects middlewares and the
// assembled store.Enhancer.
var MiddlewareProviders = wire.NewSet(
	ProvideAsyncTracker,
	ProvideRetrier,
	ProvideBatcher,
	ProvideResponseCache,
	ProvideMiddlewareStack,
)
