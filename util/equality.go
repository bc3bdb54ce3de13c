package util

import "reflect"

// ShallowEqual reports whether a and b are the same primitive value, or, for
// maps/structs/slices, whether their direct top-level fields/elements are
// == to one another (one level deep, no recursion into nested containers).
// Selectors (C2) use this to short-circuit a recompute when an
// input-selector's result is unchanged.
func ShallowEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}

	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if av.Type() != bv.Type() {
		return false
	}

	switch av.Kind() {
	case reflect.Map:
		if av.Len() != bv.Len() {
			return false
		}
		for _, key := range av.MapKeys() {
			bval := bv.MapIndex(key)
			if !bval.IsValid() {
				return false
			}
			if !reflect.DeepEqual(av.MapIndex(key).Interface(), bval.Interface()) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !reflect.DeepEqual(av.Index(i).Interface(), bv.Index(i).Interface()) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < av.NumField(); i++ {
			if !reflect.DeepEqual(av.Field(i).Interface(), bv.Field(i).Interface()) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// DeepEqual reports whether a and b are recursively equal.
func DeepEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
