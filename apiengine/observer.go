package apiengine

import (
	"context"
	"sync"
	"time"

	"fluxstate/action"
	"fluxstate/store"
)

// QueryObserverOptions mirrors spec §4.6's query hook options; Go has no
// component mount/unmount lifecycle, so QueryObserver.Start/Stop stand in
// for "on mount"/"on unmount".
type QueryObserverOptions struct {
	Skip               bool
	RefetchOnMount     bool
	PollingInterval    time.Duration
	RefetchOnReconnect bool
}

// QueryView is the live snapshot a query hook returns (spec §4.6).
type QueryView[Res any] struct {
	Data            Res
	Err             error
	IsLoading       bool
	IsFetching      bool
	IsSuccess       bool
	IsError         bool
	IsUninitialized bool
}

// QueryObserver is the framework-agnostic rendering of spec §4.6's query
// hook: Start subscribes and performs the initial dispatch (unless
// skipped), View reads the current cache entry, Refetch re-issues the
// query on demand, and Stop unsubscribes and cancels any polling timer.
type QueryObserver[Arg, Res, S any] struct {
	endpoint *QueryEndpoint[Arg, Res, S]
	dispatch store.DispatchFunc
	getState store.GetStateFunc[S]
	arg      Arg
	opts     QueryObserverOptions

	mu       sync.Mutex
	cacheKey string
	pollStop func()
	cancel   context.CancelFunc
}

// NewQueryObserver constructs an observer bound to one endpoint call.
func NewQueryObserver[Arg, Res, S any](ep *QueryEndpoint[Arg, Res, S], dispatch store.DispatchFunc, getState store.GetStateFunc[S], arg Arg, opts QueryObserverOptions) *QueryObserver[Arg, Res, S] {
	return &QueryObserver[Arg, Res, S]{endpoint: ep, dispatch: dispatch, getState: getState, arg: arg, opts: opts}
}

// Start subscribes to the observer's cache entry and, unless Skip is set,
// dispatches the initial query. Without RefetchOnMount, an entry that has
// already settled without error is reused and no query is dispatched.
// Polling, if configured, begins here too.
func (o *QueryObserver[Arg, Res, S]) Start(ctx context.Context) {
	cacheKey, err := QueryCacheKey(o.endpoint.def.Name, o.arg)
	if err != nil {
		return
	}
	o.mu.Lock()
	o.cacheKey = cacheKey
	ctx, o.cancel = context.WithCancel(ctx)
	o.mu.Unlock()

	o.dispatch(action.Action{
		Type:    actionType(o.endpoint.api.ReducerPath, suffixSubscribe),
		Payload: subscriptionPayload{CacheKey: cacheKey},
	})

	fresh := false
	if entry, ok := o.endpoint.api.SelectSlice(o.getState()).Queries[cacheKey]; ok {
		fresh = !entry.Loading && entry.Err == nil
	}
	if !o.opts.Skip && (o.opts.RefetchOnMount || !fresh) {
		go o.endpoint.Initiate(ctx, o.dispatch, o.getState, o.arg)
	}

	if o.opts.PollingInterval > 0 {
		o.startPolling(ctx)
	}
}

func (o *QueryObserver[Arg, Res, S]) startPolling(ctx context.Context) {
	ticker := time.NewTicker(o.opts.PollingInterval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				o.endpoint.Initiate(ctx, o.dispatch, o.getState, o.arg)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	o.mu.Lock()
	o.pollStop = func() { close(done) }
	o.mu.Unlock()
}

// View reads the current cache entry for this observer's arg.
func (o *QueryObserver[Arg, Res, S]) View() QueryView[Res] {
	o.mu.Lock()
	cacheKey := o.cacheKey
	o.mu.Unlock()

	slice := o.endpoint.api.SelectSlice(o.getState())
	entry, ok := slice.Queries[cacheKey]
	if !ok {
		return QueryView[Res]{IsUninitialized: true}
	}

	view := QueryView[Res]{IsLoading: entry.Loading, IsFetching: entry.Loading, Err: entry.Err}
	if data, ok := entry.Data.(Res); ok {
		view.Data = data
	}
	view.IsSuccess = !entry.Loading && entry.Err == nil
	view.IsError = entry.Err != nil
	return view
}

// Refetch re-issues the query immediately, bypassing polling/mount timing.
func (o *QueryObserver[Arg, Res, S]) Refetch(ctx context.Context) (Res, error) {
	return o.endpoint.Initiate(ctx, o.dispatch, o.getState, o.arg)
}

// Stop unsubscribes and stops any polling timer (spec §4.6: "decrements on
// unmount").
func (o *QueryObserver[Arg, Res, S]) Stop() {
	o.mu.Lock()
	cacheKey := o.cacheKey
	pollStop := o.pollStop
	cancel := o.cancel
	o.mu.Unlock()

	if pollStop != nil {
		pollStop()
	}
	if cancel != nil {
		cancel()
	}
	o.dispatch(action.Action{
		Type:    actionType(o.endpoint.api.ReducerPath, suffixUnsubscribe),
		Payload: subscriptionPayload{CacheKey: cacheKey},
	})
}

// MutationView is the live snapshot a mutation hook returns (spec §4.6).
type MutationView[Res any] struct {
	Data      Res
	Err       error
	IsLoading bool
}

// MutationObserver is the framework-agnostic rendering of spec §4.6's
// mutation hook: Trigger dispatches the mutation and tracks the latest
// cache key, View binds to that latest entry, Reset clears it.
type MutationObserver[Arg, Res, S any] struct {
	endpoint *MutationEndpoint[Arg, Res, S]
	dispatch store.DispatchFunc
	getState store.GetStateFunc[S]

	mu             sync.Mutex
	latestCacheKey string
}

// NewMutationObserver constructs an observer bound to one mutation
// endpoint.
func NewMutationObserver[Arg, Res, S any](ep *MutationEndpoint[Arg, Res, S], dispatch store.DispatchFunc, getState store.GetStateFunc[S]) *MutationObserver[Arg, Res, S] {
	return &MutationObserver[Arg, Res, S]{endpoint: ep, dispatch: dispatch, getState: getState}
}

// Trigger dispatches the mutation and remembers its cache key as the
// latest, the binding View reads from.
func (o *MutationObserver[Arg, Res, S]) Trigger(ctx context.Context, arg Arg) (Res, error) {
	dispatch := func(a action.Action) (action.Action, error) {
		if a.Type == actionType(o.endpoint.api.ReducerPath, suffixMutationStart) {
			if p, ok := a.Payload.(queryStartPayload); ok {
				o.mu.Lock()
				o.latestCacheKey = p.CacheKey
				o.mu.Unlock()
			}
		}
		return o.dispatch(a)
	}
	return o.endpoint.Initiate(ctx, dispatch, o.getState, arg)
}

// View binds to the mutation entry Trigger most recently produced (spec
// §4.6: a mutation hook's returned state tracks only the trigger call it
// is bound to). Reset forgets that binding, returning View to its zero
// state even though the underlying cache entry is still there.
func (o *MutationObserver[Arg, Res, S]) View() MutationView[Res] {
	o.mu.Lock()
	cacheKey := o.latestCacheKey
	o.mu.Unlock()
	if cacheKey == "" {
		return MutationView[Res]{}
	}

	slice := o.endpoint.api.SelectSlice(o.getState())
	entry, ok := slice.Mutations[cacheKey]
	if !ok {
		return MutationView[Res]{}
	}

	view := MutationView[Res]{IsLoading: entry.Loading, Err: entry.Err}
	if data, ok := entry.Data.(Res); ok {
		view.Data = data
	}
	return view
}

// Reset forgets the latest mutation cache key, returning View to its zero
// state.
func (o *MutationObserver[Arg, Res, S]) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.latestCacheKey = ""
}
