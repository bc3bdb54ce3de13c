// Package selector implements spec component C2: memoized derived-state
// selectors, a structured-selector combinator, and Projection, an
// incrementally maintained piece of derived state keyed by action type.
//
// There is no reselect-equivalent library anywhere in the retrieval pack, so
// Memoize/Create2/Create3 are a small hand-rolled last-inputs cache; the
// comparison itself reuses util.ShallowEqual rather than reinventing
// equality.
package selector

import "fluxstate/util"

// Selector derives a value R from state S.
type Selector[S any, R any] func(state S) R

// Memoize wraps combiner so that it only recomputes when state differs (by
// util.ShallowEqual) from the previous call's state, matching spec §4's
// requirement that a selector "must not recompute its result when its
// inputs are unchanged."
func Memoize[S any, R any](combiner func(S) R) Selector[S, R] {
	var (
		hasLast    bool
		lastState  S
		lastResult R
	)
	return func(state S) R {
		if hasLast && util.ShallowEqual(lastState, state) {
			return lastResult
		}
		lastResult = combiner(state)
		lastState = state
		hasLast = true
		return lastResult
	}
}

// Create1 builds a selector that recomputes only when input's result
// changes, the one-input case of reselect's createSelector.
func Create1[S any, A any, R any](input Selector[S, A], combine func(A) R) Selector[S, R] {
	var (
		hasLast    bool
		lastA      A
		lastResult R
	)
	return func(state S) R {
		a := input(state)
		if hasLast && util.ShallowEqual(a, lastA) {
			return lastResult
		}
		lastA = a
		lastResult = combine(a)
		hasLast = true
		return lastResult
	}
}

// Create2 is Create1 generalized to two input selectors.
func Create2[S any, A any, B any, R any](inputA Selector[S, A], inputB Selector[S, B], combine func(A, B) R) Selector[S, R] {
	var (
		hasLast    bool
		lastA      A
		lastB      B
		lastResult R
	)
	return func(state S) R {
		a := inputA(state)
		b := inputB(state)
		if hasLast && util.ShallowEqual(a, lastA) && util.ShallowEqual(b, lastB) {
			return lastResult
		}
		lastA, lastB = a, b
		lastResult = combine(a, b)
		hasLast = true
		return lastResult
	}
}

// Create3 is Create1 generalized to three input selectors.
func Create3[S any, A any, B any, C any, R any](inputA Selector[S, A], inputB Selector[S, B], inputC Selector[S, C], combine func(A, B, C) R) Selector[S, R] {
	var (
		hasLast    bool
		lastA      A
		lastB      B
		lastC      C
		lastResult R
	)
	return func(state S) R {
		a := inputA(state)
		b := inputB(state)
		c := inputC(state)
		if hasLast && util.ShallowEqual(a, lastA) && util.ShallowEqual(b, lastB) && util.ShallowEqual(c, lastC) {
			return lastResult
		}
		lastA, lastB, lastC = a, b, c
		lastResult = combine(a, b, c)
		hasLast = true
		return lastResult
	}
}
