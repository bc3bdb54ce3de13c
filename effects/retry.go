package effects

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"fluxstate/action"
	"fluxstate/middleware"
	"fluxstate/store"
	"fluxstate/thunk"
)

// RetryCondition decides whether a /rejected action is worth retrying.
type RetryCondition func(err error, a action.Action) bool

// RetryOptions configures a Retrier (spec §4.7's {maxRetries, retryDelay,
// retryCondition}).
type RetryOptions struct {
	MaxRetries     int
	RetryDelay     time.Duration
	RetryCondition RetryCondition
}

// Rerun re-dispatches the async thunk registered for a typePrefix with the
// original request's arg, type-erased the same way apiengine's
// endpointHandle bridges generic endpoints into one registry.
type Rerun func(dispatch store.DispatchFunc, arg any)

// Registration binds a typePrefix to its rerun function. Disabled mirrors
// spec's optional `enabledThunks` allow-list, inverted to an opt-out flag
// so the zero value (false) means "enabled".
type Registration struct {
	TypePrefix string
	Rerun      Rerun
	Disabled   bool
}

// Retrier tracks retry attempts keyed by "typePrefix+canonicalJSON(arg)"
// (spec §4.7) and a gobreaker.CircuitBreaker per typePrefix so a
// persistently failing thunk stops being retried even before MaxRetries
// is reached on any single request, short-circuiting further attempts
// (this module's circuit-breaker addition to spec §4.7's retry
// middleware, mirroring internal/middleware/circuit_breaker.go's HTTP
// circuit breaker adapted from per-handler to per-typePrefix).
type Retrier struct {
	opts     RetryOptions
	registry map[string]Registration

	mu       sync.Mutex
	attempts map[string]int
	timers   map[string]*time.Timer
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewRetrier builds a Retrier from opts and a set of typePrefix
// registrations.
func NewRetrier(opts RetryOptions, registrations ...Registration) *Retrier {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}
	if opts.RetryCondition == nil {
		opts.RetryCondition = func(error, action.Action) bool { return true }
	}

	registry := make(map[string]Registration, len(registrations))
	for _, r := range registrations {
		registry[r.TypePrefix] = r
	}

	return &Retrier{
		opts:     opts,
		registry: registry,
		attempts: make(map[string]int),
		timers:   make(map[string]*time.Timer),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (r *Retrier) breaker(typePrefix string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[typePrefix]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        typePrefix,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     r.opts.RetryDelay * time.Duration(1<<uint(r.opts.MaxRetries)),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(r.opts.MaxRetries)+1
		},
	})
	r.breakers[typePrefix] = b
	return b
}

func retryKey(typePrefix string, arg any) string {
	raw, err := json.Marshal(arg)
	if err != nil {
		return typePrefix
	}
	return fmt.Sprintf("%s%s", typePrefix, raw)
}

func actionError(a action.Action) error {
	if a.Error != nil {
		if err, ok := a.Error.(error); ok {
			return err
		}
		return errors.New(fmt.Sprint(a.Error))
	}
	return fmt.Errorf("rejected with value: %v", a.Payload)
}

func (r *Retrier) observe(dispatch store.DispatchFunc, a action.Action) {
	typePrefix, phase, ok := lifecycle(a.Type)
	if !ok {
		return
	}

	reg, registered := r.registry[typePrefix]
	if !registered || reg.Disabled {
		return
	}

	meta, _ := a.Meta.(thunk.AsyncMeta)
	key := retryKey(typePrefix, meta.Arg)

	if phase == "fulfilled" {
		r.mu.Lock()
		delete(r.attempts, key)
		r.mu.Unlock()
		r.breaker(typePrefix).Execute(func() (any, error) { return nil, nil })
		return
	}
	if phase != "rejected" {
		return
	}

	err := actionError(a)
	if !r.opts.RetryCondition(err, a) {
		return
	}

	_, cbErr := r.breaker(typePrefix).Execute(func() (any, error) { return nil, errors.New("rejected") })
	if errors.Is(cbErr, gobreaker.ErrOpenState) || errors.Is(cbErr, gobreaker.ErrTooManyRequests) {
		return
	}

	r.mu.Lock()
	attempt := r.attempts[key]
	if attempt >= r.opts.MaxRetries {
		r.mu.Unlock()
		return
	}
	r.attempts[key] = attempt + 1
	delay := r.opts.RetryDelay * time.Duration(1<<uint(attempt))
	r.timers[key] = time.AfterFunc(delay, func() {
		reg.Rerun(dispatch, meta.Arg)
	})
	r.mu.Unlock()
}

// Stop cancels any pending retry timer for typePrefix/arg, forgetting its
// attempt count.
func (r *Retrier) Stop(typePrefix string, arg any) {
	key := retryKey(typePrefix, arg)
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[key]; ok {
		t.Stop()
		delete(r.timers, key)
	}
	delete(r.attempts, key)
}

// RetryMiddleware wraps r around the dispatch chain.
func RetryMiddleware[S any](r *Retrier) middleware.Middleware[S] {
	return func(mapi middleware.API[S]) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(a action.Action) (action.Action, error) {
				result, err := next(a)
				if err != nil {
					return result, err
				}
				r.observe(mapi.Dispatch, a)
				return result, err
			}
		}
	}
}
