package apiengine

import (
	"fmt"
	"time"

	"fluxstate/action"
)

// Action type suffixes the reducer recognizes once prefixed with a
// reducerPath (spec §4.6's lifecycle actions).
const (
	suffixQueryStart      = "queryStart"
	suffixQuerySuccess    = "querySuccess"
	suffixQueryError      = "queryError"
	suffixMutationStart   = "mutationStart"
	suffixMutationSuccess = "mutationSuccess"
	suffixMutationError   = "mutationError"
	suffixInvalidateTags  = "invalidateTags"
	suffixSubscribe       = "subscribe"
	suffixUnsubscribe     = "unsubscribe"
	suffixQueryCleanup    = "queryCleanup"
	suffixResetApiState   = "resetApiState"
)

// actionType builds the reducerPath-prefixed action type for suffix.
func actionType(reducerPath, suffix string) string {
	return fmt.Sprintf("%s/%s", reducerPath, suffix)
}

// CacheEntry is one query's or mutation's cached result (spec §4.6, §4.8's
// "cache entry" state machine: absent -> loading -> {success, error}).
type CacheEntry struct {
	EndpointName string
	Data         any
	Err          error
	Loading      bool
	LastFetch    time.Time
	Tags         []string
}

// State is the normalized api slice: queries/mutations keyed by cache key,
// provided maps a tag key to the set of query cache keys it covers,
// subscriptions counts live observers per cache key, and args remembers
// the original query argument behind each cache key so reconnect refetch
// (spec §4.6) can re-issue it without the caller supplying it again.
type State struct {
	Queries       map[string]CacheEntry
	Mutations     map[string]CacheEntry
	Provided      map[string]map[string]struct{}
	Subscriptions map[string]int
	Args          map[string]any
}

// InitialState returns an empty api slice, also what resetApiState (spec
// §4.6's utility) returns.
func InitialState() State {
	return State{
		Queries:       make(map[string]CacheEntry),
		Mutations:     make(map[string]CacheEntry),
		Provided:      make(map[string]map[string]struct{}),
		Subscriptions: make(map[string]int),
		Args:          make(map[string]any),
	}
}

type queryStartPayload struct {
	CacheKey     string
	EndpointName string
	Arg          any
}

type querySuccessPayload struct {
	CacheKey string
	Data     any
	Tags     []string
}

type queryErrorPayload struct {
	CacheKey string
	Err      error
}

type invalidateTagsPayload struct {
	Tags []Tag
}

type subscriptionPayload struct {
	CacheKey string
}

type queryCleanupPayload struct {
	CacheKey string
}

// Reducer builds the slice reducer for one api instance, scoped to
// reducerPath so multiple api instances can coexist in the same store.
func Reducer(reducerPath string) action.Reducer[State] {
	return func(prev State, a action.Action) (State, error) {
		if prev.Queries == nil {
			prev = InitialState()
		}

		switch a.Type {
		case actionType(reducerPath, suffixQueryStart):
			p := a.Payload.(queryStartPayload)
			next := cloneState(prev)
			next.Queries[p.CacheKey] = CacheEntry{EndpointName: p.EndpointName, Loading: true, LastFetch: time.Now()}
			next.Args[p.CacheKey] = p.Arg
			return next, nil

		case actionType(reducerPath, suffixQuerySuccess):
			p := a.Payload.(querySuccessPayload)
			next := cloneState(prev)
			entry := next.Queries[p.CacheKey]
			entry.Data = p.Data
			entry.Err = nil
			entry.Loading = false
			entry.Tags = p.Tags
			next.Queries[p.CacheKey] = entry
			for _, tagKey := range p.Tags {
				set := next.Provided[tagKey]
				if set == nil {
					set = make(map[string]struct{})
				}
				set[p.CacheKey] = struct{}{}
				next.Provided[tagKey] = set
			}
			return next, nil

		case actionType(reducerPath, suffixQueryError):
			p := a.Payload.(queryErrorPayload)
			next := cloneState(prev)
			entry := next.Queries[p.CacheKey]
			entry.Err = p.Err
			entry.Loading = false
			next.Queries[p.CacheKey] = entry
			return next, nil

		case actionType(reducerPath, suffixMutationStart):
			p := a.Payload.(queryStartPayload)
			next := cloneState(prev)
			next.Mutations[p.CacheKey] = CacheEntry{EndpointName: p.EndpointName, Loading: true, LastFetch: time.Now()}
			return next, nil

		case actionType(reducerPath, suffixMutationSuccess):
			p := a.Payload.(querySuccessPayload)
			next := cloneState(prev)
			entry := next.Mutations[p.CacheKey]
			entry.Data = p.Data
			entry.Err = nil
			entry.Loading = false
			next.Mutations[p.CacheKey] = entry
			return next, nil

		case actionType(reducerPath, suffixMutationError):
			p := a.Payload.(queryErrorPayload)
			next := cloneState(prev)
			entry := next.Mutations[p.CacheKey]
			entry.Err = p.Err
			entry.Loading = false
			next.Mutations[p.CacheKey] = entry
			return next, nil

		case actionType(reducerPath, suffixInvalidateTags):
			p := a.Payload.(invalidateTagsPayload)
			next := cloneState(prev)
			for _, tag := range p.Tags {
				tagKey := tag.TagKey()
				for cacheKey := range next.Provided[tagKey] {
					delete(next.Queries, cacheKey)
					for otherTagKey, set := range next.Provided {
						delete(set, cacheKey)
						if len(set) == 0 {
							delete(next.Provided, otherTagKey)
						}
					}
				}
			}
			return next, nil

		case actionType(reducerPath, suffixSubscribe):
			p := a.Payload.(subscriptionPayload)
			next := cloneState(prev)
			next.Subscriptions[p.CacheKey] = next.Subscriptions[p.CacheKey] + 1
			return next, nil

		case actionType(reducerPath, suffixUnsubscribe):
			p := a.Payload.(subscriptionPayload)
			next := cloneState(prev)
			count := next.Subscriptions[p.CacheKey] - 1
			if count <= 0 {
				delete(next.Subscriptions, p.CacheKey)
			} else {
				next.Subscriptions[p.CacheKey] = count
			}
			return next, nil

		case actionType(reducerPath, suffixQueryCleanup):
			p := a.Payload.(queryCleanupPayload)
			next := cloneState(prev)
			delete(next.Queries, p.CacheKey)
			delete(next.Args, p.CacheKey)
			for tagKey, set := range next.Provided {
				delete(set, p.CacheKey)
				if len(set) == 0 {
					delete(next.Provided, tagKey)
				}
			}
			return next, nil

		case actionType(reducerPath, suffixResetApiState):
			return InitialState(), nil

		default:
			return prev, nil
		}
	}
}

func cloneState(s State) State {
	next := State{
		Queries:       make(map[string]CacheEntry, len(s.Queries)),
		Mutations:     make(map[string]CacheEntry, len(s.Mutations)),
		Provided:      make(map[string]map[string]struct{}, len(s.Provided)),
		Subscriptions: make(map[string]int, len(s.Subscriptions)),
		Args:          make(map[string]any, len(s.Args)),
	}
	for k, v := range s.Queries {
		next.Queries[k] = v
	}
	for k, v := range s.Mutations {
		next.Mutations[k] = v
	}
	for k, set := range s.Provided {
		clone := make(map[string]struct{}, len(set))
		for id := range set {
			clone[id] = struct{}{}
		}
		next.Provided[k] = clone
	}
	for k, v := range s.Subscriptions {
		next.Subscriptions[k] = v
	}
	for k, v := range s.Args {
		next.Args[k] = v
	}
	return next
}
