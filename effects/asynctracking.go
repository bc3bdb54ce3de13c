// Package effects implements spec component C8: the ancillary
// middlewares layered on top of the async-thunk and api-engine lifecycle
// actions — async-tracking, retry with backoff (+ circuit breaker),
// batching, and an LRU response cache.
//
// Grounded on application/mediator/behaviors.go's MetricsBehavior/
// PerformanceBehavior (timing and outcome bookkeeping wrapped around a
// single dispatch point, keyed by request), generalized from "one command
// handler" to "any /pending, /fulfilled, /rejected action triggered by an
// async thunk or api-engine endpoint".
package effects

import (
	"strings"
	"sync"

	"fluxstate/action"
	"fluxstate/middleware"
	"fluxstate/store"
	"fluxstate/thunk"
)

// AsyncTrackingState is the bookkeeping spec §4.7 describes: Global is
// true while any request is in flight anywhere, ByType/ByRequestID mirror
// that per typePrefix/requestID, and RequestIDs is the set of in-flight
// request IDs.
type AsyncTrackingState struct {
	Global      bool
	ByType      map[string]bool
	ByRequestID map[string]bool
	RequestIDs  map[string]struct{}
}

func newAsyncTrackingState() AsyncTrackingState {
	return AsyncTrackingState{
		ByType:      make(map[string]bool),
		ByRequestID: make(map[string]bool),
		RequestIDs:  make(map[string]struct{}),
	}
}

func (s AsyncTrackingState) clone() AsyncTrackingState {
	next := newAsyncTrackingState()
	next.Global = s.Global
	for k, v := range s.ByType {
		next.ByType[k] = v
	}
	for k, v := range s.ByRequestID {
		next.ByRequestID[k] = v
	}
	for k := range s.RequestIDs {
		next.RequestIDs[k] = struct{}{}
	}
	return next
}

// AsyncTrackingCallbacks are invoked with the action that triggered the
// transition and a snapshot of the tracker's state immediately after it.
type AsyncTrackingCallbacks struct {
	OnStart func(a action.Action, state AsyncTrackingState)
	OnEnd   func(a action.Action, state AsyncTrackingState)
	OnError func(a action.Action, state AsyncTrackingState)
}

// AsyncTracker owns the bookkeeping state; AsyncTrackingMiddleware wraps
// one tracker around a store's dispatch chain.
type AsyncTracker struct {
	mu         sync.Mutex
	state      AsyncTrackingState
	typeCounts map[string]int
	callbacks  AsyncTrackingCallbacks
}

// NewAsyncTracker builds a tracker with empty initial state.
func NewAsyncTracker(callbacks AsyncTrackingCallbacks) *AsyncTracker {
	return &AsyncTracker{state: newAsyncTrackingState(), typeCounts: make(map[string]int), callbacks: callbacks}
}

// State returns a snapshot of the tracker's current bookkeeping.
func (t *AsyncTracker) State() AsyncTrackingState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.clone()
}

// lifecycle reports the typePrefix and phase ("pending", "fulfilled",
// "rejected") an action's type encodes, per the async-thunk and
// api-engine naming convention "<typePrefix>/<phase>".
func lifecycle(actionType string) (typePrefix, phase string, ok bool) {
	for _, suffix := range []string{"/pending", "/fulfilled", "/rejected"} {
		if strings.HasSuffix(actionType, suffix) {
			return strings.TrimSuffix(actionType, suffix), strings.TrimPrefix(suffix, "/"), true
		}
	}
	return "", "", false
}

func requestID(a action.Action) string {
	if meta, ok := a.Meta.(thunk.AsyncMeta); ok {
		return meta.RequestID
	}
	return ""
}

func (t *AsyncTracker) observe(a action.Action) {
	typePrefix, phase, ok := lifecycle(a.Type)
	if !ok {
		return
	}
	reqID := requestID(a)

	t.mu.Lock()
	switch phase {
	case "pending":
		t.typeCounts[typePrefix]++
		t.state.ByType[typePrefix] = true
		if reqID != "" {
			t.state.ByRequestID[reqID] = true
			t.state.RequestIDs[reqID] = struct{}{}
		}
	case "fulfilled", "rejected":
		if t.typeCounts[typePrefix] > 0 {
			t.typeCounts[typePrefix]--
		}
		if t.typeCounts[typePrefix] == 0 {
			delete(t.state.ByType, typePrefix)
		}
		if reqID != "" {
			delete(t.state.ByRequestID, reqID)
			delete(t.state.RequestIDs, reqID)
		}
	}
	t.state.Global = len(t.state.RequestIDs) > 0
	snapshot := t.state.clone()
	t.mu.Unlock()

	switch phase {
	case "pending":
		if t.callbacks.OnStart != nil {
			t.callbacks.OnStart(a, snapshot)
		}
	case "fulfilled":
		if t.callbacks.OnEnd != nil {
			t.callbacks.OnEnd(a, snapshot)
		}
	case "rejected":
		if t.callbacks.OnError != nil {
			t.callbacks.OnError(a, snapshot)
		}
	}
}

// AsyncTrackingMiddleware wraps tracker around the dispatch chain,
// observing every action's lifecycle phase after the rest of the pipeline
// has run.
func AsyncTrackingMiddleware[S any](tracker *AsyncTracker) middleware.Middleware[S] {
	return func(_ middleware.API[S]) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(a action.Action) (action.Action, error) {
				result, err := next(a)
				if err != nil {
					return result, err
				}
				tracker.observe(a)
				return result, err
			}
		}
	}
}
