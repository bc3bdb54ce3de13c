package effects

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"fluxstate/action"
	"fluxstate/middleware"
	"fluxstate/store"
	"fluxstate/thunk"
)

type cacheEntry struct {
	payload   any
	expiresAt time.Time
}

// ResponseCache is an in-memory LRU keyed by "typePrefix+canonicalJSON(arg)"
// (spec §4.7), built on hashicorp/golang-lru/v2 for the max-size eviction
// and layering TTL expiry on top, since the library itself only evicts by
// recency. Only typePrefixes passed to NewResponseCache participate;
// everything else passes through untouched.
type ResponseCache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	enabled map[string]bool
}

// NewResponseCache builds a ResponseCache with room for maxSize entries and
// entries expiring after ttl (a non-positive ttl means entries never
// expire on their own, only by LRU eviction).
func NewResponseCache(maxSize int, ttl time.Duration, typePrefixes ...string) (*ResponseCache, error) {
	entries, err := lru.New[string, cacheEntry](maxSize)
	if err != nil {
		return nil, fmt.Errorf("effects: new response cache: %w", err)
	}
	enabled := make(map[string]bool, len(typePrefixes))
	for _, tp := range typePrefixes {
		enabled[tp] = true
	}
	return &ResponseCache{entries: entries, ttl: ttl, enabled: enabled}, nil
}

func cacheKey(typePrefix string, arg any) string {
	return retryKey(typePrefix, arg)
}

func (c *ResponseCache) lookup(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries.Get(key)
	if !ok {
		return cacheEntry{}, false
	}
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *ResponseCache) store(key string, payload any) {
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries.Add(key, cacheEntry{payload: payload, expiresAt: expiresAt})
	c.mu.Unlock()
}

// CacheMiddleware wraps c around the dispatch chain: a /pending action for
// a registered typePrefix whose key is cached short-circuits the pipeline
// by dispatching a synthetic /fulfilled action with AsyncMeta.Cached set,
// instead of letting the real request proceed — thunk.AsyncThunk.Thunk
// checks that flag on the action returned from its /pending dispatch and
// returns it directly, so the payload creator never runs on a cache hit. A
// /fulfilled action for a registered typePrefix that was not itself a cache
// replay stores its payload. Every other action passes through unchanged.
func CacheMiddleware[S any](c *ResponseCache) middleware.Middleware[S] {
	return func(mapi middleware.API[S]) func(next store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(a action.Action) (action.Action, error) {
				typePrefix, phase, ok := lifecycle(a.Type)
				if !ok || !c.enabled[typePrefix] {
					return next(a)
				}

				meta, _ := a.Meta.(thunk.AsyncMeta)

				if phase == "pending" {
					key := cacheKey(typePrefix, meta.Arg)
					if entry, hit := c.lookup(key); hit {
						cachedMeta := meta
						cachedMeta.Cached = true
						return mapi.Dispatch(action.Action{
							Type:    typePrefix + "/fulfilled",
							Payload: entry.payload,
							Meta:    cachedMeta,
						})
					}
					return next(a)
				}

				result, err := next(a)
				if err != nil {
					return result, err
				}
				if phase != "fulfilled" {
					return result, err
				}
				if meta.Cached {
					return result, err
				}
				c.store(cacheKey(typePrefix, meta.Arg), a.Payload)
				return result, err
			}
		}
	}
}
