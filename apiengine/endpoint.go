package apiengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fluxstate/action"
	"fluxstate/apperrors"
	"fluxstate/store"
	"fluxstate/transport"
)

// DefaultKeepUnusedDataFor is how long an unsubscribed cache entry survives
// before the eviction scan removes it (spec §4.6's keepUnusedDataFor).
const DefaultKeepUnusedDataFor = 60 * time.Second

// Api is an endpoint registry for one reducerPath, grounded on
// application/commands/bus/command_bus.go's CommandBus: a mutex-guarded
// map keyed by name, generalized from "one command type per handler" to
// "one endpoint name per query/mutation definition".
type Api[S any] struct {
	ReducerPath string
	BaseQuery   transport.BaseQuery[S]
	TagTypes    []TagType
	// SelectSlice extracts this api's State out of the store's root state
	// S, the same role a combineReducers key plays for an ordinary slice.
	SelectSlice func(S) State

	mu           sync.RWMutex
	endpoints    map[string]endpointHandle
	hookRegistry *HookRegistry
}

// hooks lazily builds the api's OnMutationSettled registry.
func (a *Api[S]) hooks() *HookRegistry {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.hookRegistry == nil {
		a.hookRegistry = NewHookRegistry()
	}
	return a.hookRegistry
}

// endpointHandle is the type-erased surface the eviction/reconnect
// middleware needs from any registered endpoint, regardless of its
// concrete Arg/Res types.
type endpointHandle interface {
	name() string
	keepUnusedDataFor() time.Duration
	refetchOnReconnect() bool
	refetch(ctx context.Context, dispatch store.DispatchFunc, getState func() any, rawArg any) error
}

// NewApi constructs an empty endpoint registry. selectSlice extracts this
// api's State from the store's root state; pass a function that simply
// returns its argument when S is itself apiengine.State.
func NewApi[S any](reducerPath string, baseQuery transport.BaseQuery[S], tagTypes []TagType, selectSlice func(S) State) *Api[S] {
	return &Api[S]{
		ReducerPath: reducerPath,
		BaseQuery:   baseQuery,
		TagTypes:    tagTypes,
		SelectSlice: selectSlice,
		endpoints:   make(map[string]endpointHandle),
	}
}

// QueryDef declares one query endpoint (spec §4.6).
type QueryDef[Arg, Res, S any] struct {
	Name                  string
	Query                 func(arg Arg) transport.Args
	TransformResponse     func(raw any) (Res, error)
	TransformErrorResponse func(err *transport.QueryError) any
	ProvidesTags          func(data Res, arg Arg) []Tag
	KeepUnusedDataFor     time.Duration
	RefetchOnReconnect    bool
}

// QueryEndpoint is a registered query, callable via Initiate.
type QueryEndpoint[Arg, Res, S any] struct {
	def QueryDef[Arg, Res, S]
	api *Api[S]
}

// RegisterQuery adds def to api under def.Name, panicking on a duplicate
// name the same way CommandBus.Register rejects re-registration (spec
// does not define endpoint re-registration semantics; a programming error
// at startup is the only realistic trigger).
func RegisterQuery[Arg, Res, S any](api *Api[S], def QueryDef[Arg, Res, S]) *QueryEndpoint[Arg, Res, S] {
	ep := &QueryEndpoint[Arg, Res, S]{def: def, api: api}
	api.mu.Lock()
	defer api.mu.Unlock()
	if _, exists := api.endpoints[def.Name]; exists {
		panic(fmt.Sprintf("apiengine: endpoint %q already registered", def.Name))
	}
	api.endpoints[def.Name] = queryHandle[Arg, Res, S]{ep: ep}
	return ep
}

// Initiate runs the query lifecycle spec §4.6 describes: dispatch
// queryStart, call the base query, then dispatch querySuccess or
// queryError, returning the transformed result or the transformed error.
func (e *QueryEndpoint[Arg, Res, S]) Initiate(ctx context.Context, dispatch store.DispatchFunc, getState store.GetStateFunc[S], arg Arg) (Res, error) {
	var zero Res
	cacheKey, err := QueryCacheKey(e.def.Name, arg)
	if err != nil {
		return zero, apperrors.InvalidCacheKey(err.Error())
	}

	if _, derr := dispatch(action.Action{
		Type:    actionType(e.api.ReducerPath, suffixQueryStart),
		Payload: queryStartPayload{CacheKey: cacheKey, EndpointName: e.def.Name, Arg: arg},
	}); derr != nil {
		return zero, derr
	}

	args := e.def.Query(arg)
	result, qerr := e.api.BaseQuery(ctx, args, transport.Extra[S]{Dispatch: dispatch, GetState: getState})
	if qerr != nil {
		return e.reportError(dispatch, cacheKey, asQueryError(qerr))
	}

	res, terr := e.transform(result.Data)
	if terr != nil {
		return e.reportError(dispatch, cacheKey, &transport.QueryError{Err: terr})
	}

	tags := e.tagKeys(res, arg)
	if _, derr := dispatch(action.Action{
		Type:    actionType(e.api.ReducerPath, suffixQuerySuccess),
		Payload: querySuccessPayload{CacheKey: cacheKey, Data: res, Tags: tags},
	}); derr != nil {
		return zero, derr
	}
	return res, nil
}

func (e *QueryEndpoint[Arg, Res, S]) transform(raw any) (Res, error) {
	if e.def.TransformResponse != nil {
		return e.def.TransformResponse(raw)
	}
	res, ok := raw.(Res)
	if !ok {
		var zero Res
		return zero, fmt.Errorf("apiengine: response for %q is not assignable to the declared result type", e.def.Name)
	}
	return res, nil
}

func (e *QueryEndpoint[Arg, Res, S]) tagKeys(res Res, arg Arg) []string {
	if e.def.ProvidesTags == nil {
		return nil
	}
	tags := e.def.ProvidesTags(res, arg)
	keys := make([]string, 0, len(tags))
	for _, t := range tags {
		keys = append(keys, t.TagKey())
	}
	return keys
}

func (e *QueryEndpoint[Arg, Res, S]) reportError(dispatch store.DispatchFunc, cacheKey string, qerr *transport.QueryError) (Res, error) {
	var payload any = qerr
	if e.def.TransformErrorResponse != nil {
		payload = e.def.TransformErrorResponse(qerr)
	}
	businessErr := fmt.Errorf("%v", payload)
	dispatch(action.Action{
		Type:    actionType(e.api.ReducerPath, suffixQueryError),
		Payload: queryErrorPayload{CacheKey: cacheKey, Err: businessErr},
	})
	var zero Res
	return zero, businessErr
}

// MutationDef declares one mutation endpoint (spec §4.6).
type MutationDef[Arg, Res, S any] struct {
	Name                   string
	Query                  func(arg Arg) transport.Args
	TransformResponse      func(raw any) (Res, error)
	TransformErrorResponse func(err *transport.QueryError) any
	InvalidatesTags        func(data Res, arg Arg) []Tag
}

// MutationEndpoint is a registered mutation, callable via Initiate.
type MutationEndpoint[Arg, Res, S any] struct {
	def MutationDef[Arg, Res, S]
	api *Api[S]
}

// RegisterMutation adds def to api under def.Name.
func RegisterMutation[Arg, Res, S any](api *Api[S], def MutationDef[Arg, Res, S]) *MutationEndpoint[Arg, Res, S] {
	ep := &MutationEndpoint[Arg, Res, S]{def: def, api: api}
	api.mu.Lock()
	defer api.mu.Unlock()
	if _, exists := api.endpoints[def.Name]; exists {
		panic(fmt.Sprintf("apiengine: endpoint %q already registered", def.Name))
	}
	api.endpoints[def.Name] = mutationHandle[Arg, Res, S]{ep: ep}
	return ep
}

// Initiate runs the mutation lifecycle: symmetric to QueryEndpoint.Initiate
// but keyed by a timestamped cache key, and on success dispatches
// invalidateTags for def.InvalidatesTags(data, arg) (spec §4.6).
func (e *MutationEndpoint[Arg, Res, S]) Initiate(ctx context.Context, dispatch store.DispatchFunc, getState store.GetStateFunc[S], arg Arg) (Res, error) {
	var zero Res
	cacheKey := MutationCacheKey(e.def.Name)

	if _, derr := dispatch(action.Action{
		Type:    actionType(e.api.ReducerPath, suffixMutationStart),
		Payload: queryStartPayload{CacheKey: cacheKey, EndpointName: e.def.Name},
	}); derr != nil {
		return zero, derr
	}

	args := e.def.Query(arg)
	result, qerr := e.api.BaseQuery(ctx, args, transport.Extra[S]{Dispatch: dispatch, GetState: getState})
	if qerr != nil {
		return e.reportError(dispatch, cacheKey, asQueryError(qerr))
	}

	res, terr := e.transform(result.Data)
	if terr != nil {
		return e.reportError(dispatch, cacheKey, &transport.QueryError{Err: terr})
	}

	if _, derr := dispatch(action.Action{
		Type:    actionType(e.api.ReducerPath, suffixMutationSuccess),
		Payload: querySuccessPayload{CacheKey: cacheKey, Data: res},
	}); derr != nil {
		return zero, derr
	}

	if e.def.InvalidatesTags != nil {
		tags := e.def.InvalidatesTags(res, arg)
		if len(tags) > 0 {
			dispatch(action.Action{
				Type:    actionType(e.api.ReducerPath, suffixInvalidateTags),
				Payload: invalidateTagsPayload{Tags: tags},
			})
		}
	}
	e.api.hooks().dispatch(e.def.Name, res, nil)
	return res, nil
}

func (e *MutationEndpoint[Arg, Res, S]) transform(raw any) (Res, error) {
	if e.def.TransformResponse != nil {
		return e.def.TransformResponse(raw)
	}
	res, ok := raw.(Res)
	if !ok {
		var zero Res
		return zero, fmt.Errorf("apiengine: response for %q is not assignable to the declared result type", e.def.Name)
	}
	return res, nil
}

func (e *MutationEndpoint[Arg, Res, S]) reportError(dispatch store.DispatchFunc, cacheKey string, qerr *transport.QueryError) (Res, error) {
	var payload any = qerr
	if e.def.TransformErrorResponse != nil {
		payload = e.def.TransformErrorResponse(qerr)
	}
	businessErr := fmt.Errorf("%v", payload)
	dispatch(action.Action{
		Type:    actionType(e.api.ReducerPath, suffixMutationError),
		Payload: queryErrorPayload{CacheKey: cacheKey, Err: businessErr},
	})
	var zero Res
	e.api.hooks().dispatch(e.def.Name, zero, businessErr)
	return zero, businessErr
}

// asQueryError normalizes a BaseQuery error to *transport.QueryError,
// wrapping anything else (a base query implementation is only required to
// return one on a transport-level failure; a context deadline or
// programming error might surface as a plain error instead).
func asQueryError(err error) *transport.QueryError {
	var qerr *transport.QueryError
	if errors.As(err, &qerr) {
		return qerr
	}
	return &transport.QueryError{Err: err}
}

// queryHandle/mutationHandle adapt the generic endpoints to the
// type-erased endpointHandle the eviction/reconnect middleware walks.
type queryHandle[Arg, Res, S any] struct{ ep *QueryEndpoint[Arg, Res, S] }

func (h queryHandle[Arg, Res, S]) name() string { return h.ep.def.Name }
func (h queryHandle[Arg, Res, S]) keepUnusedDataFor() time.Duration {
	if h.ep.def.KeepUnusedDataFor > 0 {
		return h.ep.def.KeepUnusedDataFor
	}
	return DefaultKeepUnusedDataFor
}
func (h queryHandle[Arg, Res, S]) refetchOnReconnect() bool { return h.ep.def.RefetchOnReconnect }
func (h queryHandle[Arg, Res, S]) refetch(ctx context.Context, dispatch store.DispatchFunc, getState func() any, rawArg any) error {
	arg, _ := rawArg.(Arg)
	wrapped := store.GetStateFunc[S](func() S {
		s, _ := getState().(S)
		return s
	})
	_, err := h.ep.Initiate(ctx, dispatch, wrapped, arg)
	return err
}

type mutationHandle[Arg, Res, S any] struct{ ep *MutationEndpoint[Arg, Res, S] }

func (h mutationHandle[Arg, Res, S]) name() string                    { return h.ep.def.Name }
func (h mutationHandle[Arg, Res, S]) keepUnusedDataFor() time.Duration { return DefaultKeepUnusedDataFor }
func (h mutationHandle[Arg, Res, S]) refetchOnReconnect() bool        { return false }
func (h mutationHandle[Arg, Res, S]) refetch(ctx context.Context, dispatch store.DispatchFunc, getState func() any, rawArg any) error {
	return nil
}
