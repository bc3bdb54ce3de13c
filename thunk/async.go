package thunk

import (
	"context"
	"fmt"
	"time"

	"fluxstate/action"
	"fluxstate/observability"
	"fluxstate/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// AsyncMeta is the meta payload every async-thunk lifecycle action carries
// (spec §4.3: "Each carries meta = {requestId, arg}").
type AsyncMeta struct {
	RequestID         string
	Arg               any
	RejectedWithValue bool
	Aborted           bool

	// Cached marks a /fulfilled action the cache middleware synthesized from
	// a prior result instead of letting the payload creator run again (spec
	// §4.7). Thunk checks this on the action returned from dispatching
	// /pending and, when set, returns that action directly without ever
	// calling Create.
	Cached bool
}

// AsyncAPI is handed to a PayloadCreator: Context cancels when the thunk is
// aborted (the Go analogue of exposing AbortController's signal),
// Dispatch/GetState are the thunk-aware pair, RejectWithValue reports a
// cooperative business error rather than an uncaught Go error, Extra is the
// injected extra argument (spec §4.3 step 4).
type AsyncAPI[S any] struct {
	Context         context.Context
	Dispatch        Dispatch[S]
	GetState        store.GetStateFunc[S]
	Extra           any
	RejectWithValue func(value any) error
}

// rejectedWithValue is the sentinel error a PayloadCreator returns via
// RejectWithValue, distinguishing a cooperative rejection from an uncaught
// error (spec §4.3 step 5).
type rejectedWithValue struct{ value any }

func (r *rejectedWithValue) Error() string { return fmt.Sprintf("rejected with value: %v", r.value) }

// PayloadCreator performs the actual async work for one argument value.
type PayloadCreator[Arg any, Res any, S any] func(arg Arg, api AsyncAPI[S]) (Res, error)

// Condition optionally vetoes a dispatch before any side effects run (spec
// §4.3 step 1).
type Condition[Arg any, S any] func(arg Arg, getState store.GetStateFunc[S]) bool

// AsyncThunkOptions configures an AsyncThunk's optional hooks.
type AsyncThunkOptions[Arg any, S any] struct {
	Condition Condition[Arg, S]
}

// AsyncThunk is the factory spec §4.3 calls createAsyncThunk: given a stable
// TypePrefix and a PayloadCreator, it produces thunks that run the full
// pending/fulfilled/rejected lifecycle.
type AsyncThunk[Arg any, Res any, S any] struct {
	TypePrefix string
	Create     PayloadCreator[Arg, Res, S]
	Options    AsyncThunkOptions[Arg, S]
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Handle is returned by Start: Settled resolves (never rejects, per spec
// §4.3 step 6) to the terminal action once the payload creator finishes or
// is aborted; Abort cancels the in-flight payload creator.
type Handle struct {
	RequestID string
	Settled   <-chan action.Action
	Abort     func(reason string)
}

// Thunk builds the Func that runs one dispatch of the async-thunk lifecycle
// for arg, scoped to ctx. Dispatching the returned Func (via thunk.Wrap)
// blocks the calling goroutine until the payload creator settles — the Go
// rendition of "the returned promise resolves to the terminal action" in a
// synchronous dispatch model. Use Start instead when the caller needs to
// abort the thunk from outside the dispatching goroutine.
func (t AsyncThunk[Arg, Res, S]) Thunk(ctx context.Context, arg Arg) Func[S] {
	return func(dispatch Dispatch[S], getState store.GetStateFunc[S], extra any) (any, error) {
		logger := observability.OrNop(t.Logger)
		requestID := uuid.NewString()

		spanCtx, span := observability.StartThunkSpan(ctx, t.TypePrefix, requestID)
		defer span.End()

		if t.Options.Condition != nil && !t.Options.Condition(arg, getState) {
			a := action.Action{
				Type:    t.TypePrefix + "/conditionRejected",
				Payload: arg,
				Meta:    AsyncMeta{RequestID: requestID, Arg: arg},
			}
			if _, err := dispatch(a); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "dispatching conditionRejected failed")
				return nil, err
			}
			return a, nil
		}

		runCtx, cancel := context.WithCancel(spanCtx)
		defer cancel()

		pending := action.Action{
			Type:    t.TypePrefix + "/pending",
			Payload: arg,
			Meta:    AsyncMeta{RequestID: requestID, Arg: arg},
		}
		pendingResult, err := dispatch(pending)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dispatching pending failed")
			return nil, err
		}
		if cached, ok := pendingResult.Meta.(AsyncMeta); ok && cached.Cached {
			logger.Debug("async thunk served from cache",
				zap.String("typePrefix", t.TypePrefix),
				zap.String("requestId", requestID))
			return pendingResult, nil
		}

		stopInFlight := func() {}
		if t.Metrics != nil {
			stopInFlight = t.Metrics.ThunkStarted()
		}

		api := AsyncAPI[S]{
			Context:  runCtx,
			Dispatch: dispatch,
			GetState: getState,
			Extra:    extra,
			RejectWithValue: func(value any) error {
				return &rejectedWithValue{value: value}
			},
		}

		start := time.Now()
		res, err := t.Create(arg, api)
		stopInFlight()

		if err == nil {
			terminal := action.Action{
				Type:    t.TypePrefix + "/fulfilled",
				Payload: res,
				Meta:    AsyncMeta{RequestID: requestID, Arg: arg},
			}
			t.recordSettled("fulfilled", start)
			if _, derr := dispatch(terminal); derr != nil {
				span.RecordError(derr)
				span.SetStatus(codes.Error, "dispatching fulfilled failed")
				return nil, derr
			}
			return terminal, nil
		}

		aborted := runCtx.Err() == context.Canceled
		terminal := t.rejectedAction(requestID, arg, err, aborted)

		outcome := "rejected"
		if aborted {
			outcome = "aborted"
		}
		t.recordSettled(outcome, start)
		logger.Warn("async thunk rejected",
			zap.String("typePrefix", t.TypePrefix),
			zap.String("requestId", requestID),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "payload creator "+outcome)

		if _, derr := dispatch(terminal); derr != nil {
			return nil, derr
		}
		return terminal, nil
	}
}

func (t AsyncThunk[Arg, Res, S]) rejectedAction(requestID string, arg Arg, err error, aborted bool) action.Action {
	if rv, ok := err.(*rejectedWithValue); ok {
		return action.Action{
			Type:    t.TypePrefix + "/rejected",
			Payload: rv.value,
			Meta:    AsyncMeta{RequestID: requestID, Arg: arg, RejectedWithValue: true, Aborted: aborted},
		}
	}
	return action.Action{
		Type:  t.TypePrefix + "/rejected",
		Error: err,
		Meta:  AsyncMeta{RequestID: requestID, Arg: arg, RejectedWithValue: false, Aborted: aborted},
	}
}

func (t AsyncThunk[Arg, Res, S]) recordSettled(outcome string, start time.Time) {
	if t.Metrics != nil {
		t.Metrics.RecordThunkSettled(t.TypePrefix, outcome, time.Since(start))
	}
}

// Start dispatches t for arg asynchronously, returning a Handle whose
// Abort cancels the payload creator's context and whose Settled channel
// receives the terminal action once the lifecycle completes. This is the
// cancellable counterpart to store.Dispatch(thunk.Wrap(t.Thunk(ctx, arg)))
// for callers that need to abort from outside the dispatching goroutine
// (spec §4.3: "a separate abort(reason) on the returned handle").
func Start[Arg any, Res any, S any](dispatch store.DispatchFunc, ctx context.Context, t AsyncThunk[Arg, Res, S], arg Arg) Handle {
	runCtx, cancel := context.WithCancel(ctx)
	settled := make(chan action.Action, 1)

	go func() {
		terminal, _ := dispatch(Wrap(t.Thunk(runCtx, arg)))
		settled <- terminal
	}()

	return Handle{
		Settled: settled,
		Abort:   func(reason string) { cancel() },
	}
}
