// Package store implements spec component C3: the store kernel that holds
// state, runs the root reducer, and sequences listener notification.
//
// Grounded on application/mediator/mediator.go's single dispatch entry
// point (one place all side effects and logging wrap around) generalized
// from the teacher's command/query duality down to Redux's single
// dispatch, and on its structured zap logging around that entry point.
package store

import (
	"context"
	"sync"

	"fluxstate/action"
	"fluxstate/apperrors"
	"fluxstate/observability"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// DispatchFunc dispatches a single action through the store and returns it
// (or a non-nil error if validation, reentrancy, or the reducer itself
// failed).
type DispatchFunc func(a action.Action) (action.Action, error)

// GetStateFunc returns the store's current state snapshot.
type GetStateFunc[S any] func() S

// Listener is notified once per dispatch that committed a new state.
type Listener func()

// Creator builds a Store from a root reducer and a preloaded state, the Go
// analogue of Redux's createStore.
type Creator[S any] func(reducer action.Reducer[S], preloaded S) (*Store[S], error)

// Enhancer wraps store construction: it receives the "bare" Creator and
// returns one that layers additional behavior on top (middleware wiring via
// the middleware package, persistence rehydration via the persist package).
// Composition is right-to-left, matching spec §4.1's enhancer contract.
type Enhancer[S any] func(next Creator[S]) Creator[S]

// Store holds the state tree, runs the root reducer synchronously on every
// dispatch, and notifies a snapshot of its listeners afterward.
type Store[S any] struct {
	mu             sync.Mutex
	state          S
	reducer        action.Reducer[S]
	listeners      map[int]Listener
	nextListenerID int
	dispatching    bool
	logger         *zap.Logger
	dispatchFn     DispatchFunc
}

// New constructs a Store by running reducer(preloaded, @@INIT), applying
// enhancer (if any) around the base creator. enhancer is typically
// middleware.Apply(...) composed with a persistence enhancer.
func New[S any](reducer action.Reducer[S], preloaded S, enhancer Enhancer[S], logger *zap.Logger) (*Store[S], error) {
	create := baseCreator[S](observability.OrNop(logger))
	if enhancer != nil {
		create = enhancer(create)
	}
	return create(reducer, preloaded)
}

func baseCreator[S any](logger *zap.Logger) Creator[S] {
	return func(reducer action.Reducer[S], preloaded S) (*Store[S], error) {
		st := &Store[S]{
			reducer:   reducer,
			listeners: make(map[int]Listener),
			logger:    logger,
		}
		st.dispatchFn = st.dispatchInternal

		initial, err := reducer(preloaded, action.Action{Type: action.Init})
		if err != nil {
			return nil, err
		}
		st.state = initial

		logger.Info("store initialized")
		return st, nil
	}
}

// GetState returns the current state tree, failing kind-ReentrancyViolation
// if called while the reducer is executing (spec §4.1).
func (s *Store[S]) GetState() (S, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatching {
		var zero S
		return zero, apperrors.Reentrancy("GetState called while the reducer is executing")
	}
	return s.state, nil
}

// Dispatch runs a.Action through the store's effective dispatch, which is
// either the base reducer dispatch or, once an enhancer has replaced it,
// the fully composed middleware chain.
func (s *Store[S]) Dispatch(a action.Action) (action.Action, error) {
	s.mu.Lock()
	dispatchFn := s.dispatchFn
	s.mu.Unlock()
	return dispatchFn(a)
}

// BaseDispatch runs a directly through the reducer, bypassing any
// middleware chain. Enhancers (middleware.Apply) use this as the innermost
// link they wrap.
func (s *Store[S]) BaseDispatch(a action.Action) (action.Action, error) {
	return s.dispatchInternal(a)
}

// ReplaceDispatch swaps the store's effective dispatch function, the hook
// enhancers use to install a composed middleware chain after construction.
func (s *Store[S]) ReplaceDispatch(fn DispatchFunc) {
	s.mu.Lock()
	s.dispatchFn = fn
	s.mu.Unlock()
}

func (s *Store[S]) dispatchInternal(a action.Action) (action.Action, error) {
	_, span := observability.StartDispatchSpan(context.Background(), a.Type)
	defer span.End()

	if err := action.Validate(a); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return action.Action{}, err
	}

	s.mu.Lock()
	if s.dispatching {
		s.mu.Unlock()
		err := apperrors.Reentrancy("dispatch called re-entrantly while the reducer is executing")
		span.RecordError(err)
		span.SetStatus(codes.Error, "reentrant dispatch")
		return action.Action{}, err
	}
	s.dispatching = true
	prevState := s.state
	reducer := s.reducer
	s.mu.Unlock()

	next, err := reducer(prevState, a)

	s.mu.Lock()
	s.dispatching = false
	if err == nil {
		s.state = next
	}
	snapshot := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		snapshot = append(snapshot, l)
	}
	logger := s.logger
	s.mu.Unlock()

	if err != nil {
		logger.Warn("dispatch failed", zap.String("type", a.Type), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "reducer failed")
		return action.Action{}, err
	}
	logger.Debug("dispatched", zap.String("type", a.Type))

	notifyListeners(snapshot)
	return a, nil
}

// notifyListeners calls every listener in snapshot exactly once. A listener
// that panics does not prevent later listeners in the same pass from
// running; the first panic observed is re-raised once the pass completes
// (spec §4.1: "the first exception propagate synchronously once all
// listeners have been attempted").
func notifyListeners(snapshot []Listener) {
	var firstPanic any
	for _, l := range snapshot {
		func() {
			defer func() {
				if r := recover(); r != nil && firstPanic == nil {
					firstPanic = r
				}
			}()
			l()
		}()
	}
	if firstPanic != nil {
		panic(firstPanic)
	}
}

// Subscribe adds listener to the live set and returns an unsubscribe thunk.
// Both subscribing and unsubscribing fail kind-ReentrancyViolation while the
// reducer is executing (spec §4.1).
func (s *Store[S]) Subscribe(listener Listener) (func() error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatching {
		return nil, apperrors.Reentrancy("subscribe called while the reducer is executing")
	}

	id := s.nextListenerID
	s.nextListenerID++
	s.listeners[id] = listener

	return func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.dispatching {
			return apperrors.Reentrancy("unsubscribe called while the reducer is executing")
		}
		delete(s.listeners, id)
		return nil
	}, nil
}
