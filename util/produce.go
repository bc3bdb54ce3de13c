// Package util holds the small immutable-update and comparison helpers spec
// component C10 names: produce, equality, freeze, and bindActionCreators.
//
// No third-party immutable-data or deep-clone library exists anywhere in the
// retrieval pack (see DESIGN.md); Produce is implemented with a JSON
// marshal/unmarshal round trip, the same pragmatic technique real-world Go
// "draft mutation" helpers use when a value's shape isn't known until
// runtime and no generated Clone() method is available.
package util

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Cloner is implemented by state types that know how to copy themselves
// cheaply; Produce prefers it over the JSON fallback when present.
type Cloner[S any] interface {
	Clone() S
}

// Produce applies recipe to a mutable draft copied from base and returns the
// resulting value, leaving base untouched. This is the copy-on-write layer
// spec §9 calls for to support "mutable-style draft updates" inside
// reducers (e.g. `draft.Items = append(draft.Items, x)`) while keeping the
// reducer itself pure from the caller's point of view.
func Produce[S any](base S, recipe func(draft *S)) S {
	draft := deepCopy(base)
	recipe(&draft)
	return draft
}

func deepCopy[S any](v S) S {
	if cloner, ok := any(v).(Cloner[S]); ok {
		return cloner.Clone()
	}

	buf, err := json.Marshal(v)
	if err != nil {
		// A value that cannot round-trip through JSON (e.g. a channel or a
		// function field) cannot be drafted generically; callers with such
		// state must implement Cloner[S] instead.
		panic(fmt.Sprintf("util.Produce: state of type %T is not JSON-cloneable and does not implement Cloner: %v", v, err))
	}

	var out S
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		panic(fmt.Sprintf("util.Produce: failed to reconstruct state of type %T: %v", v, err))
	}
	return out
}
