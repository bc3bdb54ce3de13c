// Package persist implements spec component C7: snapshotting the state
// tree to a storage.Binder, throttled writes, versioned migration, and
// rehydration, reachable either as a store.Enhancer or as a
// middleware.Middleware.
//
// Grounded on the teacher's decorator-over-a-port shape
// (internal/infrastructure/persistence/circuit_breaker_decorator.go wraps
// a repository port with cross-cutting behavior without changing its
// interface); persist wraps storage.Binder the same way, and also wraps
// store.Creator directly as an Enhancer per spec §4.5.
package persist

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fluxstate/action"
	"fluxstate/middleware"
	"fluxstate/observability"
	"fluxstate/storage"
	"fluxstate/store"

	"go.uber.org/zap"
)

// Reserved action types the persist layer recognizes on the pipeline (spec
// §3's reserved-action-type list).
const (
	ActionRehydrate = "@@PERSIST/REHYDRATE"
	ActionFlush     = "@@PERSIST/FLUSH"
	ActionPurge     = "@@PERSIST/PURGE"
	ActionPause     = "@@PERSIST/PAUSE"
	ActionResume    = "@@PERSIST/RESUME"
)

// RehydrateStrategy picks how a persisted record is applied to the live
// tree (spec §4.5).
type RehydrateStrategy int

const (
	// StrategyReplace overwrites the matching slices wholesale.
	StrategyReplace RehydrateStrategy = iota
	// StrategyMerge applies the persisted value key-by-key over the
	// slice's already-initialized state.
	StrategyMerge
)

// record is the wire format persist writes to storage (spec §3: the
// persisted record wire format).
type record struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// Config[S] configures one persist.Enhancer/Middleware instance.
type Config[S any] struct {
	Key       string
	Binder    storage.Binder
	Version   int
	Throttle  time.Duration
	Strategy  RehydrateStrategy
	Logger    *zap.Logger
	Partialize func(S) any
	Migrate    func(old json.RawMessage, fromVersion int) (any, error)
	Serialize   func(any) (json.RawMessage, error)
	Deserialize func(json.RawMessage) (any, error)
	Rehydrate   func(state S, payload any, strategy RehydrateStrategy) S
}

func (c *Config[S]) fillDefaults() {
	if c.Throttle <= 0 {
		c.Throttle = time.Second
	}
	if c.Logger == nil {
		c.Logger = observability.NewNopLogger()
	}
	if c.Partialize == nil {
		c.Partialize = func(s S) any { return s }
	}
	if c.Serialize == nil {
		c.Serialize = func(v any) (json.RawMessage, error) { return json.Marshal(v) }
	}
	if c.Deserialize == nil {
		c.Deserialize = func(raw json.RawMessage) (any, error) {
			var v any
			err := json.Unmarshal(raw, &v)
			return v, err
		}
	}
}

// Persister holds the throttle/pause state shared by the enhancer and
// middleware surfaces, and the flush/pause/resume/purge controls spec
// §4.5 exposes via reserved action types.
type Persister[S any] struct {
	cfg Config[S]

	mu       sync.Mutex
	paused   bool
	pending  *S
	timer    *time.Timer
	flushNow chan struct{}
}

// New builds a Persister from cfg, filling in defaults spec §4.5 assigns
// to an unconfigured persist layer.
func New[S any](cfg Config[S]) *Persister[S] {
	cfg.fillDefaults()
	return &Persister[S]{cfg: cfg, flushNow: make(chan struct{}, 1)}
}

// Load reads the persisted record, running migrate if its version does
// not match cfg.Version. A storage error or malformed record is treated as
// "no persisted state" per spec §4.5: logged, never fatal.
func (p *Persister[S]) Load(ctx context.Context) (any, bool) {
	raw, err := p.cfg.Binder.Get(ctx, p.cfg.Key)
	if err != nil {
		p.cfg.Logger.Warn("persist: read failed, starting from initial state",
			zap.String("key", p.cfg.Key), zap.Error(err))
		return nil, false
	}
	if raw == nil {
		return nil, false
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		p.cfg.Logger.Warn("persist: malformed record, starting from initial state",
			zap.String("key", p.cfg.Key), zap.Error(err))
		return nil, false
	}

	if rec.Version == p.cfg.Version {
		payload, err := p.cfg.Deserialize(rec.State)
		if err != nil {
			p.cfg.Logger.Warn("persist: deserialize failed, starting from initial state", zap.Error(err))
			return nil, false
		}
		return payload, true
	}

	if p.cfg.Migrate == nil {
		p.cfg.Logger.Warn("persist: version mismatch with no migrate configured, discarding",
			zap.Int("storedVersion", rec.Version), zap.Int("configuredVersion", p.cfg.Version))
		return nil, false
	}

	migrated, err := p.cfg.Migrate(rec.State, rec.Version)
	if err != nil {
		p.cfg.Logger.Error("persist: migration failed, discarding persisted state", zap.Error(err))
		return nil, false
	}
	return migrated, true
}

// Schedule queues state for a throttled write. Writes are skipped entirely
// while paused.
func (p *Persister[S]) Schedule(state S) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return
	}
	p.pending = &state
	if p.timer != nil {
		return
	}
	p.timer = time.AfterFunc(p.cfg.Throttle, p.flush)
}

// Flush writes any pending state immediately, bypassing the throttle
// interval (spec §4.5: "the final pending write must flush on explicit
// @@PERSIST/FLUSH").
func (p *Persister[S]) Flush(ctx context.Context) {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	if pending == nil {
		return
	}
	p.write(ctx, *pending)
}

// Pause suspends writes; Schedule becomes a no-op until Resume.
func (p *Persister[S]) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Resume lifts a prior Pause.
func (p *Persister[S]) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

// Purge deletes the persisted record from storage.
func (p *Persister[S]) Purge(ctx context.Context) {
	if err := p.cfg.Binder.Remove(ctx, p.cfg.Key); err != nil {
		p.cfg.Logger.Warn("persist: purge failed", zap.String("key", p.cfg.Key), zap.Error(err))
	}
}

func (p *Persister[S]) flush() {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.timer = nil
	p.mu.Unlock()

	if pending == nil {
		return
	}
	p.write(context.Background(), *pending)
}

func (p *Persister[S]) write(ctx context.Context, state S) {
	partial := p.cfg.Partialize(state)
	raw, err := p.cfg.Serialize(partial)
	if err != nil {
		p.cfg.Logger.Error("persist: serialize failed", zap.Error(err))
		return
	}
	rec := record{Version: p.cfg.Version, State: raw}
	data, err := json.Marshal(rec)
	if err != nil {
		p.cfg.Logger.Error("persist: marshal record failed", zap.Error(err))
		return
	}
	if err := p.cfg.Binder.Set(ctx, p.cfg.Key, data); err != nil {
		p.cfg.Logger.Error("persist: write failed", zap.String("key", p.cfg.Key), zap.Error(err))
	}
}

// Enhancer wraps a store.Creator: on construction it loads any persisted
// record, dispatches @@PERSIST/REHYDRATE with the (possibly migrated)
// payload, then subscribes to every subsequent state change to drive
// Schedule (spec §4.5's enhancer surface).
func Enhancer[S any](p *Persister[S]) store.Enhancer[S] {
	return func(next store.Creator[S]) store.Creator[S] {
		return func(reducer action.Reducer[S], preloaded S) (*store.Store[S], error) {
			st, err := next(reducer, preloaded)
			if err != nil {
				return nil, err
			}

			if payload, ok := p.Load(context.Background()); ok {
				current, _ := st.GetState()
				rehydrated := p.applyRehydrate(current, payload)
				if _, derr := st.Dispatch(action.Action{Type: ActionRehydrate, Payload: rehydrated}); derr != nil {
					p.cfg.Logger.Warn("persist: rehydrate dispatch failed", zap.Error(derr))
				}
			}

			if _, err := st.Subscribe(func() {
				state, err := st.GetState()
				if err != nil {
					return
				}
				p.Schedule(state)
			}); err != nil {
				p.cfg.Logger.Warn("persist: subscribe failed", zap.Error(err))
			}

			return st, nil
		}
	}
}

// Middleware reaches the same behavior from inside the dispatch pipeline
// (spec §4.5's middleware surface): it recognizes the reserved
// @@PERSIST/* action types and schedules a write after every action that
// is not itself control traffic.
func Middleware[S any](p *Persister[S]) middleware.Middleware[S] {
	return func(api middleware.API[S]) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(a action.Action) (action.Action, error) {
				switch a.Type {
				case ActionFlush:
					p.Flush(context.Background())
					return a, nil
				case ActionPause:
					p.Pause()
					return a, nil
				case ActionResume:
					p.Resume()
					return a, nil
				case ActionPurge:
					p.Purge(context.Background())
					return a, nil
				}

				result, err := next(a)
				if err == nil {
					p.Schedule(api.GetState())
				}
				return result, err
			}
		}
	}
}

// applyRehydrate picks the caller-supplied Rehydrate function if set,
// otherwise falls back to a JSON-driven replace: the persisted payload
// fully overwrites state, re-marshaled through state's own type so a
// map[string]any payload from Deserialize unmarshals into S's structure.
func (p *Persister[S]) applyRehydrate(current S, payload any) S {
	if p.cfg.Rehydrate != nil {
		return p.cfg.Rehydrate(current, payload, p.cfg.Strategy)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		p.cfg.Logger.Warn("persist: rehydrate marshal failed, keeping current state", zap.Error(err))
		return current
	}

	target := current
	if p.cfg.Strategy == StrategyReplace {
		target = *new(S)
	}
	if err := json.Unmarshal(raw, &target); err != nil {
		p.cfg.Logger.Warn("persist: rehydrate unmarshal failed, keeping current state", zap.Error(err))
		return current
	}
	return target
}
