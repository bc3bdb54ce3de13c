package effects

import (
	"sync"
	"time"

	"fluxstate/action"
	"fluxstate/middleware"
	"fluxstate/store"
)

// BatchActionType is the reserved action spec §6 lists alongside @@INIT
// and @@PERSIST/…. A root reducer that does not special-case it simply
// ignores it (spec: "reducers must ignore @@BATCH by default"), since an
// unrecognized action type already leaves state unchanged.
const BatchActionType = "@@BATCH"

// BatchPayload is @@BATCH's payload: the buffered actions, in the order
// they were pushed.
type BatchPayload struct {
	Actions []action.Action
}

// ShouldBatch decides whether an action belongs in the buffer rather than
// passing straight through.
type ShouldBatch func(a action.Action) bool

// Batcher buffers batchable actions and flushes them as one @@BATCH
// action, either once BatchSize is reached or FlushInterval elapses since
// the first buffered action, mirroring
// application/events/handler_registry.go's DispatchBatch shape (collect,
// then dispatch once) but triggered by size/time rather than by the
// caller supplying the whole batch up front.
type Batcher struct {
	shouldBatch   ShouldBatch
	batchSize     int
	flushInterval time.Duration

	mu       sync.Mutex
	buffer   []action.Action
	timer    *time.Timer
	dispatch store.DispatchFunc
}

// NewBatcher builds a Batcher. A batchSize <= 0 disables the size trigger
// (only FlushInterval ever flushes); a non-positive flushInterval
// disables the time trigger.
func NewBatcher(shouldBatch ShouldBatch, batchSize int, flushInterval time.Duration) *Batcher {
	return &Batcher{shouldBatch: shouldBatch, batchSize: batchSize, flushInterval: flushInterval}
}

func (b *Batcher) push(a action.Action) {
	b.mu.Lock()
	b.buffer = append(b.buffer, a)
	full := b.batchSize > 0 && len(b.buffer) >= b.batchSize
	first := len(b.buffer) == 1
	if first && b.flushInterval > 0 && !full {
		b.timer = time.AfterFunc(b.flushInterval, b.Flush)
	}
	b.mu.Unlock()

	if full {
		b.Flush()
	}
}

// Flush dispatches whatever is currently buffered as one @@BATCH action
// and clears the buffer. A no-op when the buffer is empty.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if len(b.buffer) == 0 {
		b.mu.Unlock()
		return
	}
	actions := b.buffer
	b.buffer = nil
	dispatch := b.dispatch
	b.mu.Unlock()

	if dispatch == nil {
		return
	}
	dispatch(action.Action{Type: BatchActionType, Payload: BatchPayload{Actions: actions}})
}

// BatchingMiddleware wraps b around the dispatch chain: a batchable
// action is buffered and held (it does not reach the reducer until its
// batch flushes); every other action passes through unchanged.
func BatchingMiddleware[S any](b *Batcher) middleware.Middleware[S] {
	return func(mapi middleware.API[S]) func(next store.DispatchFunc) store.DispatchFunc {
		b.mu.Lock()
		b.dispatch = mapi.Dispatch
		b.mu.Unlock()

		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(a action.Action) (action.Action, error) {
				if a.Type == BatchActionType || !b.shouldBatch(a) {
					return next(a)
				}
				b.push(a)
				return a, nil
			}
		}
	}
}

// UnwrapBatch wraps reducer so it applies each action inside a @@BATCH
// payload in order, folding the accumulated state through reducer for
// each one, and delegates every other action straight to reducer — "a
// batch reducer unpacks it" (spec §4.7).
func UnwrapBatch[S any](reducer action.Reducer[S]) action.Reducer[S] {
	return func(prev S, a action.Action) (S, error) {
		if a.Type != BatchActionType {
			return reducer(prev, a)
		}
		payload, ok := a.Payload.(BatchPayload)
		if !ok {
			return prev, nil
		}
		state := prev
		for _, inner := range payload.Actions {
			var err error
			state, err = reducer(state, inner)
			if err != nil {
				return state, err
			}
		}
		return state, nil
	}
}
