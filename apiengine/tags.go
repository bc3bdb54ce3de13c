// Package apiengine implements spec component C9: a declarative
// query/mutation cache with tag-based invalidation, subscription
// refcounting, TTL eviction, and reconnect refetch — the Go rendering of
// RTK Query's createApi.
//
// Grounded on application/commands/bus/command_bus.go's handler registry
// (a mutex-guarded map keyed by name), generalized from one command type
// per handler to one endpoint definition per name. Endpoints dispatch their
// own start/success/error actions directly; they are not built on
// thunk.AsyncThunk and record no metrics.
package apiengine

import "fmt"

// TagType names a declared invalidation category (spec §4.6: "tagTypes is
// a declared set").
type TagType string

// Tag is either a bare type or a {type, id} pair; TagKey defines how each
// form stringifies for the provided/invalidates bookkeeping.
type Tag struct {
	Type TagType
	ID   string
}

// TagKey returns "<type>" when ID is empty, "<type>:<id>" otherwise (spec
// §4.6: "Tag key. type alone when id is absent; otherwise <type>:<id>").
func (t Tag) TagKey() string {
	if t.ID == "" {
		return string(t.Type)
	}
	return fmt.Sprintf("%s:%s", t.Type, t.ID)
}
