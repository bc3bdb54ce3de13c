package selector

import "fluxstate/util"

// Structured builds a selector that assembles a map of named sub-selector
// results on every call, memoized by identity: when no named selector's
// result changed (shallow equality), the previously returned map is
// returned again instead of the new one.
func Structured[S any](selectors map[string]Selector[S, any]) Selector[S, map[string]any] {
	var (
		hasLast    bool
		lastValues map[string]any
		lastResult map[string]any
	)
	return func(state S) map[string]any {
		values := make(map[string]any, len(selectors))
		for name, sel := range selectors {
			values[name] = sel(state)
		}

		if hasLast && util.ShallowEqual(lastValues, values) {
			return lastResult
		}

		lastValues = values
		lastResult = values
		hasLast = true
		return lastResult
	}
}
