package di

import (
	"context"
	"encoding/json"
	"fmt"

	"fluxstate/action"
	"fluxstate/apiengine"
	"fluxstate/config"
	"fluxstate/effects"
	"fluxstate/entity"
	"fluxstate/middleware"
	"fluxstate/observability"
	"fluxstate/persist"
	"fluxstate/storage"
	"fluxstate/store"
	"fluxstate/thunk"
	"fluxstate/transport"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ProvideConfig loads configuration from path, falling back to
// config.Default when path is empty, matching the teacher's
// config.LoadConfig-with-defaults convention.
func ProvideConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("di: default config: %w", err)
		}
		return cfg, nil
	}
	return config.Load(path)
}

// ProvideLogger builds the container's zap logger.
func ProvideLogger() (*zap.Logger, error) {
	return observability.NewLogger()
}

// ProvideMetrics builds the Prometheus-backed metrics recorder, registered
// against the default registry the way the teacher's decorators package
// wires its MetricsCollector.
func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.DefaultRegisterer)
}

// ProvideTracerProvider installs the global tracer StartDispatchSpan and
// StartThunkSpan use. When cfg.Tracing.Enabled it batches spans to an OTLP
// collector (observability.NewOTLPTracerProvider); otherwise it installs the
// no-exporter provider so span creation stays cheap but the calls remain
// live. The returned shutdown func flushes the exporter and should run on
// container teardown.
func ProvideTracerProvider(cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.Tracing.Enabled {
		observability.SetTracerProvider(observability.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	provider, shutdown, err := observability.NewOTLPTracerProvider(context.Background(), observability.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("di: build tracer provider: %w", err)
	}
	observability.SetTracerProvider(provider)
	return shutdown, nil
}

// ProvideBinder builds the storage.Binder persistence snapshots through.
// The demo container always uses the in-memory binder; cmd/server can
// swap in storage.NewDynamoDBBinder/storage.NewSupabaseBinder for a real
// deployment without touching anything downstream.
func ProvideBinder() storage.Binder {
	return storage.NewMemoryBinder()
}

// ProvidePersister builds the persist.Persister snapshotting RootState
// through binder. Rehydrate reconstructs only the things slice's concrete
// entity.Collection[Thing] type from the generically-decoded persisted
// payload; the catalog api slice is intentionally left at its fresh
// InitialState on every rehydrate, since a cached query/mutation result is
// a transport-layer artifact that should never outlive the process that
// fetched it (spec §4.6's cache entries are not meant to be durable).
func ProvidePersister(cfg *config.Config, binder storage.Binder, logger *zap.Logger) *persist.Persister[RootState] {
	return persist.New(persist.Config[RootState]{
		Key:      "fluxstate:root",
		Binder:   binder,
		Version:  cfg.Persistence.Version,
		Throttle: cfg.Persistence.ThrottleInterval,
		Strategy: persistStrategy(cfg),
		Logger:   logger,
		Rehydrate: func(current RootState, payload any, _ persist.RehydrateStrategy) RootState {
			return rehydrateRootState(current, payload)
		},
	})
}

func persistStrategy(cfg *config.Config) persist.RehydrateStrategy {
	if cfg.Persistence.RehydrateReplace {
		return persist.StrategyReplace
	}
	return persist.StrategyMerge
}

func rehydrateRootState(current RootState, payload any) RootState {
	next := make(RootState, len(current))
	for k, v := range current {
		next[k] = v
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return current
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return current
	}

	sliceRaw, ok := decoded[sliceThings]
	if !ok {
		return next
	}
	var things entity.Collection[Thing]
	if err := json.Unmarshal(sliceRaw, &things); err == nil {
		next[sliceThings] = things
	}
	return next
}

// ProvideBaseQuery builds the default HTTP BaseQuery the catalog api talks
// to.
func ProvideBaseQuery(cfg *config.Config) transport.BaseQuery[RootState] {
	return transport.NewHTTPBaseQuery[RootState](transport.HTTPConfig{
		BaseURL: cfg.HTTP.BaseURL,
	})
}

// ProvideThingLookup builds the seam fetchThing's payload creator runs
// against.
func ProvideThingLookup() *memoryThingLookup {
	return newMemoryThingLookup()
}

// ProvideFetchThing builds the fetchThing async thunk bound to lookup.
func ProvideFetchThing(lookup *memoryThingLookup) thunk.AsyncThunk[string, Thing, RootState] {
	return fetchThing(lookup)
}

// ProvideAPI builds the apiengine.Api instance catalogAPI registers its
// endpoints against.
func ProvideAPI(baseQuery transport.BaseQuery[RootState]) *apiengine.Api[RootState] {
	api := apiengine.NewApi[RootState](sliceAPI, baseQuery, []apiengine.TagType{TagThing}, selectCatalogSlice)
	catalogAPI(api)
	return api
}

// ProvideAsyncTracker builds the effects.AsyncTracker shared across the
// demo's async thunks.
func ProvideAsyncTracker() *effects.AsyncTracker {
	return effects.NewAsyncTracker(effects.AsyncTrackingCallbacks{})
}

// ProvideRetrier builds the retry+circuit-breaker middleware's state,
// registering fetchThingTypePrefix so a failed lookup is retried with
// backoff per cfg.Retry, re-dispatching fetchThing itself on each retry.
func ProvideRetrier(cfg *config.Config, fetch thunk.AsyncThunk[string, Thing, RootState]) *effects.Retrier {
	return effects.NewRetrier(effects.RetryOptions{
		MaxRetries: cfg.Retry.MaxRetries,
		RetryDelay: cfg.Retry.BaseDelay,
	}, effects.Registration{
		TypePrefix: fetchThingTypePrefix,
		Rerun: func(dispatch store.DispatchFunc, arg any) {
			id, _ := arg.(string)
			thunk.Start(dispatch, context.Background(), fetch, id)
		},
	})
}

// ProvideBatcher builds the batching middleware's buffer with a predicate
// that batches no action type, so every action passes straight through.
func ProvideBatcher(cfg *config.Config) *effects.Batcher {
	return effects.NewBatcher(func(action.Action) bool { return false }, cfg.Batching.Size, cfg.Batching.FlushInterval)
}

// ProvideResponseCache builds the LRU response cache for fetchThing.
func ProvideResponseCache(cfg *config.Config) (*effects.ResponseCache, error) {
	return effects.NewResponseCache(cfg.Cache.MaxSize, cfg.Cache.TTL, fetchThingTypePrefix)
}

// ProvideMiddlewareStack assembles the store.Enhancer from every
// middleware the container wires, in the order spec §4.2/§4.7 compose
// them: logging first (observes everything), thunk (unwraps Funcs) before
// anything that inspects lifecycle actions, then the ancillary effects
// middlewares, then the api engine's own eviction/reconnect pass last so
// it always sees the settled action the others already processed.
func ProvideMiddlewareStack(
	logger *zap.Logger,
	tracker *effects.AsyncTracker,
	retrier *effects.Retrier,
	cache *effects.ResponseCache,
	batcher *effects.Batcher,
	api *apiengine.Api[RootState],
) store.Enhancer[RootState] {
	return middleware.Apply[RootState](
		middleware.Logging[RootState](logger),
		thunk.Middleware[RootState](nil),
		effects.AsyncTrackingMiddleware[RootState](tracker),
		effects.RetryMiddleware[RootState](retrier),
		effects.CacheMiddleware[RootState](cache),
		effects.BatchingMiddleware[RootState](batcher),
		apiengine.Middleware[RootState](api),
	)
}
