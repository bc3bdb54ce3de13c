package apiengine

import (
	"context"

	"fluxstate/action"
	"fluxstate/store"
)

// ResetApiState builds the action that clears an api's entire slice back to
// InitialState (spec §4.6's resetApiState utility) — used, for example,
// after sign-out to drop every cached query and mutation.
func ResetApiState(reducerPath string) action.Action {
	return action.Action{Type: actionType(reducerPath, suffixResetApiState)}
}

// InvalidateTags builds the action that drops every query cache entry
// providing any of tags (spec §4.6's util.invalidateTags endpoint,
// callable directly without going through a mutation's InvalidatesTags).
func InvalidateTags(reducerPath string, tags []Tag) action.Action {
	return action.Action{
		Type:    actionType(reducerPath, suffixInvalidateTags),
		Payload: invalidateTagsPayload{Tags: tags},
	}
}

// Prefetch initiates a query endpoint's Initiate without binding an
// observer to it, mirroring spec §4.6's prefetch(endpoint, arg) utility
// used to warm the cache ahead of a component mounting.
func Prefetch[Arg, Res, S any](ctx context.Context, ep *QueryEndpoint[Arg, Res, S], dispatch store.DispatchFunc, getState store.GetStateFunc[S], arg Arg) {
	go ep.Initiate(ctx, dispatch, getState, arg)
}
