// Package storage implements the storage side of spec component C7: a
// pluggable key/value binder that persist.Enhancer snapshots state through.
//
// Grounded on the repository-pattern shape the teacher uses throughout
// infrastructure/persistence (Save/FindByID/Delete over a single logical
// key), generalized to a flat Binder{Get,Set,Remove} port so any backend
// (memory, filesystem, DynamoDB, Supabase) can serve the persist middleware
// identically.
package storage

import "context"

// Binder is the storage port persist.Enhancer drives. Get returns
// (nil, nil) for a missing key, matching the teacher's
// "not found is not necessarily an error" repository convention for
// optional lookups.
type Binder interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
