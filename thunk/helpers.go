package thunk

import (
	"context"
	"sync"
	"time"

	"fluxstate/action"
	"fluxstate/store"
)

// Polling repeatedly dispatches t for arg every interval until maxAttempts
// is reached, condition returns false, or ctx is cancelled, stopping
// immediately on the first error returned by dispatch. It returns a
// stopPolling func the caller can invoke to cancel externally (spec §4.3:
// "Polling thunk ... Exposes stopPolling() to cancel externally").
func Polling[Arg any, Res any, S any](
	ctx context.Context,
	dispatch store.DispatchFunc,
	t AsyncThunk[Arg, Res, S],
	arg Arg,
	interval time.Duration,
	maxAttempts int,
	condition func(attempt int) bool,
) (stopPolling func()) {
	pollCtx, cancel := context.WithCancel(ctx)

	go func() {
		attempt := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				attempt++
				if maxAttempts > 0 && attempt > maxAttempts {
					return
				}
				if condition != nil && !condition(attempt) {
					return
				}
				if _, err := dispatch(Wrap(t.Thunk(pollCtx, arg))); err != nil {
					return
				}
			}
		}
	}()

	return cancel
}

// Search debounces repeated calls to Trigger by waitFor, skipping empty
// queries entirely (spec §4.3: "Search thunk: internally debounces (default
// 300 ms) and skips empty queries"). Trigger cancels any pending debounce
// timer on every call.
type Search[S any] struct {
	WaitFor time.Duration

	timer *time.Timer
}

// DefaultSearchDebounce is the spec's default debounce window.
const DefaultSearchDebounce = 300 * time.Millisecond

// Trigger schedules a dispatch of t for query after the debounce window,
// cancelling any call still pending. A blank query never schedules a
// dispatch.
func (s *Search[S]) Trigger(ctx context.Context, dispatch store.DispatchFunc, t AsyncThunk[string, any, S], query string) {
	if s.timer != nil {
		s.timer.Stop()
	}
	if query == "" {
		return
	}

	waitFor := s.WaitFor
	if waitFor <= 0 {
		waitFor = DefaultSearchDebounce
	}

	s.timer = time.AfterFunc(waitFor, func() {
		_, _ = dispatch(Wrap(t.Thunk(ctx, query)))
	})
}

// PageArg is the argument shape a Paginated thunk's payload creator
// receives: the page to fetch and the page size.
type PageArg struct {
	Page     int
	PageSize int
}

// Paginated builds a thunk that fetches one page via t, re-dispatchable
// with an incremented Page by the caller; it is a thin wrapper with no
// state of its own beyond what AsyncThunk already tracks per requestId
// (spec §4.3: "Paginated ... thunks are thin wrappers").
func Paginated[Res any, S any](t AsyncThunk[PageArg, Res, S], page, pageSize int) Func[S] {
	return t.Thunk(context.Background(), PageArg{Page: page, PageSize: pageSize})
}

// Batch coalesces items arriving within window into a single dispatch of t,
// flushing early if it accumulates batchSize items (spec §4.3: "batched ...
// batching window").
type Batch[Arg any, Res any, S any] struct {
	Window    time.Duration
	BatchSize int

	mu      sync.Mutex
	pending []Arg
	timer   *time.Timer
}

// Add enqueues arg, flushing dispatch(t, accumulated) either once
// BatchSize items have queued or Window has elapsed since the first item in
// the current batch, whichever comes first.
func (b *Batch[Arg, Res, S]) Add(ctx context.Context, dispatch store.DispatchFunc, t AsyncThunk[[]Arg, Res, S], arg Arg) {
	b.mu.Lock()
	b.pending = append(b.pending, arg)
	if len(b.pending) == 1 {
		window := b.Window
		if window <= 0 {
			window = 50 * time.Millisecond
		}
		b.timer = time.AfterFunc(window, func() { b.flush(ctx, dispatch, t) })
	}
	full := b.BatchSize > 0 && len(b.pending) >= b.BatchSize
	if full && b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()

	if full {
		b.flush(ctx, dispatch, t)
	}
}

func (b *Batch[Arg, Res, S]) flush(ctx context.Context, dispatch store.DispatchFunc, t AsyncThunk[[]Arg, Res, S]) {
	b.mu.Lock()
	items := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(items) == 0 {
		return
	}
	_, _ = dispatch(Wrap(t.Thunk(ctx, items)))
}

// Dependent dispatches first, and only if it fulfilled (no Error field),
// dispatches the thunk then() produces from its payload, awaiting the first
// thunk's result before the second begins (spec §4.3: "dependent ...
// dependency-await order").
func Dependent[S any](dispatch Dispatch[S], first Func[S], then func(payload any) Func[S]) (any, error) {
	result, err := first(dispatch, nil, nil)
	if err != nil {
		return nil, err
	}
	terminal, ok := result.(action.Action)
	if !ok || terminal.Error != nil {
		return result, err
	}
	return dispatch(then(terminal.Payload))
}

// ErrorBoundary wraps a PayloadCreator with exponential backoff over
// maxAttempts tries, falling back to fallback(arg) if every attempt fails
// (spec §4.3: "error-boundary ... exponential backoff with fallback
// payload").
func ErrorBoundary[Arg any, Res any, S any](
	create PayloadCreator[Arg, Res, S],
	maxAttempts int,
	baseDelay time.Duration,
	fallback func(arg Arg) Res,
) PayloadCreator[Arg, Res, S] {
	return func(arg Arg, api AsyncAPI[S]) (Res, error) {
		delay := baseDelay
		var lastErr error
		for attempt := 0; attempt < maxAttempts; attempt++ {
			if attempt > 0 {
				select {
				case <-api.Context.Done():
					var zero Res
					return zero, api.Context.Err()
				case <-time.After(delay):
				}
				delay *= 2
			}
			res, err := create(arg, api)
			if err == nil {
				return res, nil
			}
			lastErr = err
		}
		if fallback != nil {
			return fallback(arg), nil
		}
		var zero Res
		return zero, lastErr
	}
}
