package apiengine

import (
	"sort"
	"sync"
)

// SettledHook observes a mutation endpoint's terminal outcome. Priority
// orders execution among hooks registered for the same endpoint (lower
// runs first), mirroring the teacher's event HandlerRegistry priority
// convention.
type SettledHook struct {
	Name     string
	Priority int
	Handle   func(endpointName string, data any, err error)
}

// HookRegistry is a priority-ordered, per-endpoint-name registry of
// mutation-settled observers, generalized from
// application/events/handler_registry.go's per-event-type handler list
// (Register/Unregister, bubble-sorted by priority, dispatch-under-RLock
// with a handler-slice copy) to "per mutation endpoint name" instead of
// "per domain event type".
type HookRegistry struct {
	mu    sync.RWMutex
	hooks map[string][]SettledHook
}

// NewHookRegistry builds an empty registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{hooks: make(map[string][]SettledHook)}
}

// Register adds hook for endpointName, keeping the endpoint's hook slice
// sorted by Priority.
func (r *HookRegistry) Register(endpointName string, hook SettledHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[endpointName] = append(r.hooks[endpointName], hook)
	sort.SliceStable(r.hooks[endpointName], func(i, j int) bool {
		return r.hooks[endpointName][i].Priority < r.hooks[endpointName][j].Priority
	})
}

// Unregister removes every hook named name registered for endpointName.
func (r *HookRegistry) Unregister(endpointName, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	filtered := r.hooks[endpointName][:0:0]
	for _, h := range r.hooks[endpointName] {
		if h.Name != name {
			filtered = append(filtered, h)
		}
	}
	if len(filtered) == 0 {
		delete(r.hooks, endpointName)
		return
	}
	r.hooks[endpointName] = filtered
}

// dispatch invokes every hook registered for endpointName, in priority
// order, copying the slice first so a hook can safely register another
// hook without deadlocking.
func (r *HookRegistry) dispatch(endpointName string, data any, err error) {
	r.mu.RLock()
	hooks := make([]SettledHook, len(r.hooks[endpointName]))
	copy(hooks, r.hooks[endpointName])
	r.mu.RUnlock()

	for _, h := range hooks {
		h.Handle(endpointName, data, err)
	}
}

// OnMutationSettled registers hook to run after every call to the mutation
// endpoint named endpointName settles, whether it succeeded or failed
// (spec extension: a parallel, optional observation point alongside the
// cache, for side effects like "show a toast on mutation success" that do
// not belong in §4.6's cache semantics).
func OnMutationSettled[S any](api *Api[S], endpointName string, hook SettledHook) {
	api.hooks().Register(endpointName, hook)
}
