package selector

import (
	"sync"
	"time"

	"fluxstate/action"
)

// Handler recomputes a Projection's derived value given its previous value
// and the action that triggered the recompute.
type Handler[R any] func(prev R, a action.Action) R

// Stats mirrors the per-projection counters the teacher's projection
// registry keeps for every registered read model: how many matching actions
// it has folded in, when the last one landed, and a running average of how
// long each fold took.
type Stats struct {
	EventsProcessed   int64
	LastEventUnixNano int64
	AverageLatencyNs  float64
}

// Projection is a piece of derived state that is updated incrementally, one
// matching action at a time, instead of recomputed from the full state tree
// on every read — the Go analogue of the teacher's event-to-read-model
// routing, keyed by action type instead of domain event type.
type Projection[R any] struct {
	mu       sync.RWMutex
	name     string
	value    R
	handlers map[string]Handler[R]
	stats    map[string]*Stats
}

// NewProjection creates a named projection seeded with an initial value.
func NewProjection[R any](name string, initial R) *Projection[R] {
	return &Projection[R]{
		name:     name,
		value:    initial,
		handlers: make(map[string]Handler[R]),
		stats:    make(map[string]*Stats),
	}
}

// On registers h to run whenever an action of actionType is notified,
// returning the projection for chaining.
func (p *Projection[R]) On(actionType string, h Handler[R]) *Projection[R] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[actionType] = h
	return p
}

// Notify folds a in if a handler is registered for its type, updating the
// projection's value and per-action-type stats. Actions with no registered
// handler are ignored.
func (p *Projection[R]) Notify(a action.Action) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.handlers[a.Type]
	if !ok {
		return
	}

	start := time.Now()
	p.value = h(p.value, a)
	elapsed := time.Since(start)

	st := p.stats[a.Type]
	if st == nil {
		st = &Stats{}
		p.stats[a.Type] = st
	}
	st.EventsProcessed++
	st.LastEventUnixNano = time.Now().UnixNano()
	st.AverageLatencyNs = (st.AverageLatencyNs*float64(st.EventsProcessed-1) + float64(elapsed.Nanoseconds())) / float64(st.EventsProcessed)
}

// Value returns the projection's current derived value.
func (p *Projection[R]) Value() R {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Stats returns a copy of the per-action-type counters accumulated so far.
func (p *Projection[R]) Stats() map[string]Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]Stats, len(p.stats))
	for actionType, st := range p.stats {
		out[actionType] = *st
	}
	return out
}

// Reset replaces the projection's value with initial and clears its stats,
// mirroring the teacher's replay-from-scratch reset semantics.
func (p *Projection[R]) Reset(initial R) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = initial
	p.stats = make(map[string]*Stats)
}
