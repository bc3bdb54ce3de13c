package di

import (
	"context"
	"fmt"

	"fluxstate/action"
	"fluxstate/apiengine"
	"fluxstate/config"
	"fluxstate/effects"
	"fluxstate/observability"
	"fluxstate/persist"
	"fluxstate/storage"
	"fluxstate/store"
	"fluxstate/thunk"
	"fluxstate/transport"

	"go.uber.org/zap"
)

// Container holds every dependency the demo wiring needs, built by
// NewContainer the way the teacher's internal/di/container.go hand-builds
// its Container.initialize() rather than relying on generated `wire` code
// (no wire_gen.go exists anywhere in the reference wiring this mirrors).
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	Metrics *observability.Metrics

	Binder    storage.Binder
	Persister *persist.Persister[RootState]

	BaseQuery transport.BaseQuery[RootState]
	API       *apiengine.Api[RootState]

	ThingLookup *memoryThingLookup
	FetchThing  thunk.AsyncThunk[string, Thing, RootState]

	AsyncTracker *effects.AsyncTracker
	Retrier      *effects.Retrier
	Batcher      *effects.Batcher
	Cache        *effects.ResponseCache

	Store *store.Store[RootState]

	shutdownFuncs []func() error
}

// NewContainer builds a fully wired Container: load config, build every
// collaborator, assemble the middleware stack, and construct the store
// with persistence rehydration applied via persist.Enhancer.
func NewContainer(configPath string) (*Container, error) {
	cfg, err := ProvideConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("di: load config: %w", err)
	}

	logger, err := ProvideLogger()
	if err != nil {
		return nil, fmt.Errorf("di: build logger: %w", err)
	}

	tracerShutdown, err := ProvideTracerProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("di: build tracer provider: %w", err)
	}

	c := &Container{
		Config:       cfg,
		Logger:       logger,
		Metrics:      ProvideMetrics(),
		Binder:       ProvideBinder(),
		BaseQuery:    ProvideBaseQuery(cfg),
		ThingLookup:  ProvideThingLookup(),
		AsyncTracker: ProvideAsyncTracker(),
		Batcher:      ProvideBatcher(cfg),
	}

	c.Persister = ProvidePersister(cfg, c.Binder, logger)
	c.API = ProvideAPI(c.BaseQuery)
	c.FetchThing = ProvideFetchThing(c.ThingLookup)
	c.Retrier = ProvideRetrier(cfg, c.FetchThing)

	cache, err := ProvideResponseCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("di: build response cache: %w", err)
	}
	c.Cache = cache

	enhancer := ProvideMiddlewareStack(logger, c.AsyncTracker, c.Retrier, c.Cache, c.Batcher, c.API)
	enhancer = composeEnhancers(persist.Enhancer[RootState](c.Persister), enhancer)

	st, err := store.New(rootReducer(), RootState{}, enhancer, logger)
	if err != nil {
		return nil, fmt.Errorf("di: construct store: %w", err)
	}
	c.Store = st

	c.addShutdownFunc(func() error {
		c.Persister.Flush(context.Background())
		return nil
	})
	c.addShutdownFunc(func() error {
		return tracerShutdown(context.Background())
	})

	return c, nil
}

// composeEnhancers wires outer around inner the way middleware.Apply
// composes individual middlewares, so the persistence enhancer's
// rehydrate-then-subscribe wrapping sits outside the dispatch-chain
// enhancer built from the ordinary middlewares.
func composeEnhancers[S any](outer, inner store.Enhancer[S]) store.Enhancer[S] {
	return func(next store.Creator[S]) store.Creator[S] {
		return outer(inner(next))
	}
}

// Tick dispatches a no-op, api-prefixed action so apiengine's eviction
// sweep (apiengine.Middleware) runs even while the app is otherwise idle.
// cmd/worker calls this on a timer; the reducer itself ignores the
// unrecognized suffix and returns the api slice unchanged.
func (c *Container) Tick() {
	_, _ = c.Store.Dispatch(action.Action{Type: sliceAPI + "/tick"})
}

func (c *Container) addShutdownFunc(fn func() error) {
	c.shutdownFuncs = append(c.shutdownFuncs, fn)
}

// Shutdown runs every registered shutdown function in reverse registration
// order, collecting (not short-circuiting on) failures.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(c.shutdownFuncs) - 1; i >= 0; i-- {
		if err := c.shutdownFuncs[i](); err != nil {
			errs = append(errs, err)
			c.Logger.Warn("di: shutdown step failed", zap.Error(err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("di: shutdown completed with %d errors", len(errs))
	}
	return nil
}
