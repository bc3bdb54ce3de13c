package apiengine

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// QueryCacheKey computes "<endpointName>(<canonical JSON of args>)" (spec
// §4.6). Go's json.Marshal already visits map keys in sorted order and
// struct fields in declaration order, so it is canonical without any
// extra normalization step; a nil args value serializes as the literal
// token "undefined" per spec rather than JSON "null", since the two are
// distinct concepts in the spec's source language.
func QueryCacheKey(endpointName string, args any) (string, error) {
	canonical, err := canonicalize(args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", endpointName, canonical), nil
}

func canonicalize(args any) (string, error) {
	if args == nil {
		return "undefined", nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

var mutationSeq atomic.Int64

// MutationCacheKey computes "<endpointName>:<monotonic timestamp>" (spec
// §4.6). A process-wide atomic counter stands in for the spec's wall-clock
// timestamp: it is monotonic by construction and free of the collision risk
// two mutations dispatched within the same clock tick would otherwise have.
func MutationCacheKey(endpointName string) string {
	seq := mutationSeq.Add(1)
	return fmt.Sprintf("%s:%d", endpointName, seq)
}
