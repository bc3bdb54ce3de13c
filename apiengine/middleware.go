package apiengine

import (
	"context"
	"strings"
	"time"

	"fluxstate/action"
	"fluxstate/middleware"
	"fluxstate/store"
)

// ActionOnline is the reserved reconnect signal spec §4.6/§3 describes
// ("on a @@network/ONLINE action the middleware re-dispatches the
// underlying thunk for every query cacheKey whose subscription count >
// 0").
const ActionOnline = "@@network/ONLINE"

// Middleware implements spec §4.6's eviction and reconnect-refetch
// behavior: on every action whose type begins with api.ReducerPath, it
// scans the query cache for unsubscribed, stale entries and schedules
// their cleanup; on ActionOnline, it re-issues every subscribed query.
//
// Grounded on application/commands/bus/command_bus.go's metrics-wrapped
// dispatch (bookkeeping performed around the call, not inside a handler),
// generalized to bookkeeping performed around the whole pipeline.
func Middleware[S any](api *Api[S]) middleware.Middleware[S] {
	return func(mapi middleware.API[S]) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(a action.Action) (action.Action, error) {
				result, err := next(a)
				if err != nil {
					return result, err
				}

				if strings.HasPrefix(a.Type, api.ReducerPath+"/") {
					evict(api, mapi)
				}
				if a.Type == ActionOnline {
					reconnect(api, mapi)
				}

				return result, err
			}
		}
	}
}

func evict[S any](api *Api[S], mapi middleware.API[S]) {
	apiState := api.SelectSlice(mapi.GetState())

	now := time.Now()
	for cacheKey, entry := range apiState.Queries {
		if apiState.Subscriptions[cacheKey] > 0 {
			continue
		}
		api.mu.RLock()
		handle, known := api.endpoints[entry.EndpointName]
		api.mu.RUnlock()

		ttl := DefaultKeepUnusedDataFor
		if known {
			ttl = handle.keepUnusedDataFor()
		}
		if now.Sub(entry.LastFetch) > ttl {
			mapi.Dispatch(action.Action{
				Type:    actionType(api.ReducerPath, suffixQueryCleanup),
				Payload: queryCleanupPayload{CacheKey: cacheKey},
			})
		}
	}
}

func reconnect[S any](api *Api[S], mapi middleware.API[S]) {
	apiState := api.SelectSlice(mapi.GetState())

	for cacheKey, count := range apiState.Subscriptions {
		if count <= 0 {
			continue
		}
		entry, exists := apiState.Queries[cacheKey]
		if !exists {
			continue
		}
		api.mu.RLock()
		handle, known := api.endpoints[entry.EndpointName]
		api.mu.RUnlock()
		if !known || !handle.refetchOnReconnect() {
			continue
		}
		arg := apiState.Args[cacheKey]
		getState := func() any { return mapi.GetState() }
		handle.refetch(context.Background(), mapi.Dispatch, getState, arg)
	}
}
