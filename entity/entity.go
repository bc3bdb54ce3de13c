// Package entity implements spec component C6: a normalized {ids, entities}
// collection adapter with CRUD operations and safe selectors.
//
// Grounded on the teacher's node/edge collection bookkeeping in
// domain/core/aggregates/graph.go (a map keyed by id, with the aggregate
// responsible for keeping a canonical iteration order), generalized from a
// graph's node set to an arbitrary Adapter[T]. Stdlib only (generics,
// reflect for the shallow-merge in UpdateOne) — no normalized-collection
// library appears anywhere in the retrieval pack.
package entity

import (
	"reflect"
	"sort"
)

// SelectID extracts the stable key T is stored under.
type SelectID[T any] func(entity T) string

// LessFunc orders two entities; when set on an Adapter, Collection.IDs is
// kept sorted by it after every mutation.
type LessFunc[T any] func(a, b T) bool

// Collection is the normalized shape spec §3 defines: ids is the canonical
// iteration order, entities is the lookup table. Both fields are exported so
// callers (selectors, persistence) can read them directly.
type Collection[T any] struct {
	IDs      []string
	Entities map[string]T
}

// Adapter configures CRUD and selector operations for one entity shape,
// the Go analogue of createEntityAdapter.
type Adapter[T any] struct {
	selectID SelectID[T]
	less     LessFunc[T]
}

// NewAdapter builds an Adapter. less may be nil, in which case insertion
// order is preserved instead of a comparer-defined order (spec §3).
func NewAdapter[T any](selectID SelectID[T], less LessFunc[T]) *Adapter[T] {
	return &Adapter[T]{selectID: selectID, less: less}
}

// InitialState returns an empty collection, suitable as a slice's zero
// value.
func (a *Adapter[T]) InitialState() Collection[T] {
	return Collection[T]{Entities: make(map[string]T)}
}

// AddOne inserts e if its id is new; an existing id is left untouched (spec
// distinguishes "add" from "set"/"upsert" the same way Redux Toolkit does).
func (a *Adapter[T]) AddOne(c Collection[T], e T) Collection[T] {
	return a.AddMany(c, []T{e})
}

// AddMany inserts every entity in es whose id is not already present.
func (a *Adapter[T]) AddMany(c Collection[T], es []T) Collection[T] {
	next := a.clone(c)
	for _, e := range es {
		id := a.selectID(e)
		if _, exists := next.Entities[id]; exists {
			continue
		}
		next.Entities[id] = e
		next.IDs = append(next.IDs, id)
	}
	a.resort(next)
	return next
}

// SetOne inserts or fully replaces e.
func (a *Adapter[T]) SetOne(c Collection[T], e T) Collection[T] {
	return a.SetMany(c, []T{e})
}

// SetMany inserts or fully replaces every entity in es; new ids are
// appended and the collection is re-sorted (spec §4.4: "setMany replaces
// entries by id (new ids appended and then re-sorted)").
func (a *Adapter[T]) SetMany(c Collection[T], es []T) Collection[T] {
	next := a.clone(c)
	for _, e := range es {
		id := a.selectID(e)
		if _, exists := next.Entities[id]; !exists {
			next.IDs = append(next.IDs, id)
		}
		next.Entities[id] = e
	}
	a.resort(next)
	return next
}

// UpsertOne inserts e if new, merges it onto the existing entity otherwise.
func (a *Adapter[T]) UpsertOne(c Collection[T], e T) Collection[T] {
	return a.UpsertMany(c, []T{e})
}

// UpsertMany merges every entity in es onto its existing counterpart, or
// inserts it if new (spec §4.4: "upsertMany merges").
func (a *Adapter[T]) UpsertMany(c Collection[T], es []T) Collection[T] {
	next := a.clone(c)
	for _, e := range es {
		id := a.selectID(e)
		if existing, exists := next.Entities[id]; exists {
			next.Entities[id] = shallowMergeStruct(existing, e)
		} else {
			next.Entities[id] = e
			next.IDs = append(next.IDs, id)
		}
	}
	a.resort(next)
	return next
}

// UpdateOne shallow-merges changes onto the entity stored under id; a
// missing id is a no-op (spec §4.4: "updateOne({id, changes}) merges
// changes shallowly onto the existing entity; missing id is a no-op").
// changes names struct field values to overwrite, by exported field name.
func (a *Adapter[T]) UpdateOne(c Collection[T], id string, changes map[string]any) Collection[T] {
	return a.UpdateMany(c, map[string]map[string]any{id: changes})
}

// UpdateMany applies UpdateOne's merge to every id in changesByID.
func (a *Adapter[T]) UpdateMany(c Collection[T], changesByID map[string]map[string]any) Collection[T] {
	next := a.clone(c)
	for id, changes := range changesByID {
		existing, exists := next.Entities[id]
		if !exists {
			continue
		}
		next.Entities[id] = mergeFields(existing, changes)
	}
	a.resort(next)
	return next
}

// RemoveOne deletes the entity stored under id, if any.
func (a *Adapter[T]) RemoveOne(c Collection[T], id string) Collection[T] {
	return a.RemoveMany(c, []string{id})
}

// RemoveMany deletes every entity stored under an id in ids.
func (a *Adapter[T]) RemoveMany(c Collection[T], ids []string) Collection[T] {
	toRemove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		toRemove[id] = struct{}{}
	}

	next := a.clone(c)
	filteredIDs := next.IDs[:0:0]
	for _, id := range next.IDs {
		if _, remove := toRemove[id]; remove {
			delete(next.Entities, id)
			continue
		}
		filteredIDs = append(filteredIDs, id)
	}
	next.IDs = filteredIDs
	return next
}

// RemoveAll empties the collection.
func (a *Adapter[T]) RemoveAll(c Collection[T]) Collection[T] {
	return a.InitialState()
}

// SelectAll returns every entity in canonical order.
func (a *Adapter[T]) SelectAll(c Collection[T]) []T {
	out := make([]T, 0, len(c.IDs))
	for _, id := range c.IDs {
		if e, ok := c.Entities[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// SelectByID returns the entity stored under id, safe against a missing id.
func (a *Adapter[T]) SelectByID(c Collection[T], id string) (T, bool) {
	e, ok := c.Entities[id]
	return e, ok
}

// SelectIDs returns the canonical id order.
func (a *Adapter[T]) SelectIDs(c Collection[T]) []string {
	out := make([]string, len(c.IDs))
	copy(out, c.IDs)
	return out
}

// SelectEntities returns the id->entity lookup table.
func (a *Adapter[T]) SelectEntities(c Collection[T]) map[string]T {
	return c.Entities
}

// SelectTotal returns the number of entities in the collection.
func (a *Adapter[T]) SelectTotal(c Collection[T]) int {
	return len(c.IDs)
}

func (a *Adapter[T]) clone(c Collection[T]) Collection[T] {
	next := Collection[T]{
		IDs:      append([]string(nil), c.IDs...),
		Entities: make(map[string]T, len(c.Entities)),
	}
	for id, e := range c.Entities {
		next.Entities[id] = e
	}
	return next
}

// resort keeps IDs ordered by the configured comparer, a stable sort so
// ties resolve by insertion order (spec §4.4).
func (a *Adapter[T]) resort(c Collection[T]) {
	if a.less == nil {
		return
	}
	sort.SliceStable(c.IDs, func(i, j int) bool {
		return a.less(c.Entities[c.IDs[i]], c.Entities[c.IDs[j]])
	})
}

// shallowMergeStruct overwrites base's fields with incoming's non-zero
// fields, field by field, the struct analogue of upsert's merge semantics.
func shallowMergeStruct[T any](base, incoming T) T {
	bv := reflect.ValueOf(&base).Elem()
	iv := reflect.ValueOf(incoming)
	if bv.Kind() != reflect.Struct || iv.Kind() != reflect.Struct {
		return incoming
	}
	for i := 0; i < iv.NumField(); i++ {
		field := iv.Field(i)
		if !field.IsZero() && bv.Field(i).CanSet() {
			bv.Field(i).Set(field)
		}
	}
	return base
}

// mergeFields overwrites base's named fields from changes, by exported
// field name, leaving every other field untouched.
func mergeFields[T any](base T, changes map[string]any) T {
	bv := reflect.ValueOf(&base).Elem()
	if bv.Kind() != reflect.Struct {
		return base
	}
	t := bv.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Name
		if val, ok := changes[name]; ok {
			field := bv.Field(i)
			if field.CanSet() {
				field.Set(reflect.ValueOf(val))
			}
		}
	}
	return base
}
