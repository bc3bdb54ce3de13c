// Package transport implements spec §4.6's baseQuery contract: the single
// function apiengine endpoints call to actually perform a query or
// mutation, independent of the HTTP (or other) transport underneath.
//
// Grounded on interfaces/http/rest/handlers/node_handler.go's request
// shaping (method, headers, JSON body, validator/v10 tags) read the other
// direction — a client issuing the request a handler like that would
// receive.
package transport

import (
	"context"

	"fluxstate/store"
)

// Args are the transport-level parameters an endpoint's query(args) call
// produces (spec §4.6).
type Args struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
	Query   map[string]string
}

// Result is what a successful BaseQuery call returns.
type Result struct {
	Data       any
	StatusCode int
}

// Extra carries the {dispatch, getState} pair spec §4.6 says baseQuery
// receives alongside the cancellation signal (ctx already carries that).
type Extra[S any] struct {
	Dispatch store.DispatchFunc
	GetState store.GetStateFunc[S]
}

// BaseQuery executes one transport call. A non-nil error must be a
// *QueryError so apiengine can apply transformErrorResponse uniformly.
type BaseQuery[S any] func(ctx context.Context, args Args, extra Extra[S]) (Result, error)

// QueryError is the error shape a BaseQuery implementation returns on
// failure (spec §3: KindBaseQueryError), carrying enough of the transport
// response for transformErrorResponse to inspect.
type QueryError struct {
	StatusCode int
	Data       any
	Err        error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "base query failed"
}

func (e *QueryError) Unwrap() error { return e.Err }
