package oracle

import (
	"slices"
	"sync"

	"github.com/aretw0/entropia/pkg/domain"
)

type entry[S any] struct {
	transitions []domain.Transition[S]
	edges       []domain.Edge
	err         error
}

// Cache stores resolved transitions and every state value seen so far.
// Safe for concurrent use.
type Cache[S any] struct {
	mu       sync.RWMutex
	resolved map[domain.StateHash]*entry[S]
	known    map[domain.StateHash]S
	// gen advances on every invalidation; entries computed under an older
	// generation are not stored.
	gen uint64
}

// NewCache creates an empty cache.
func NewCache[S any]() *Cache[S] {
	return &Cache[S]{
		resolved: make(map[domain.StateHash]*entry[S]),
		known:    make(map[domain.StateHash]S),
	}
}

// Remember registers a state value so it can later be looked up by hash.
func (c *Cache[S]) Remember(s S) domain.StateHash {
	h := domain.HashOf(s)
	c.remember(h, s)
	return h
}

func (c *Cache[S]) remember(h domain.StateHash, s S) {
	c.mu.RLock()
	_, ok := c.known[h]
	c.mu.RUnlock()
	if ok {
		return
	}
	c.mu.Lock()
	if _, ok := c.known[h]; !ok {
		c.known[h] = s
	}
	c.mu.Unlock()
}

// State returns the state value registered under h.
func (c *Cache[S]) State(h domain.StateHash) (S, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.known[h]
	return s, ok
}

// Lookup returns the cached transitions of h. The slice is a copy.
func (c *Cache[S]) Lookup(h domain.StateHash) ([]domain.Transition[S], bool) {
	e, ok := c.lookup(h)
	if !ok || e.err != nil {
		return nil, false
	}
	return slices.Clone(e.transitions), true
}

func (c *Cache[S]) lookup(h domain.StateHash) (*entry[S], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.resolved[h]
	return e, ok
}

func (c *Cache[S]) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// store inserts e under h unless an entry already exists, and returns the entry
// that ends up in the cache. An entry computed before the latest invalidation
// (gen is stale) is returned to its caller but not cached.
func (c *Cache[S]) store(h domain.StateHash, gen uint64, e *entry[S]) *entry[S] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return e
	}
	if cur, ok := c.resolved[h]; ok {
		return cur
	}
	c.resolved[h] = e
	return e
}

// Len returns the number of resolved states, including failed resolutions.
func (c *Cache[S]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.resolved)
}

// Known returns the number of registered state values.
func (c *Cache[S]) Known() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.known)
}

// Hashes returns the resolved hashes in ascending order.
func (c *Cache[S]) Hashes() []domain.StateHash {
	c.mu.RLock()
	hs := make([]domain.StateHash, 0, len(c.resolved))
	for h := range c.resolved {
		hs = append(hs, h)
	}
	c.mu.RUnlock()
	slices.Sort(hs)
	return hs
}

// KnownHashes returns every registered hash in ascending order.
func (c *Cache[S]) KnownHashes() []domain.StateHash {
	c.mu.RLock()
	hs := make([]domain.StateHash, 0, len(c.known))
	for h := range c.known {
		hs = append(hs, h)
	}
	c.mu.RUnlock()
	slices.Sort(hs)
	return hs
}

// Invalidate drops the resolved transitions of the given hashes. Registered state
// values are kept. It returns how many entries were removed.
func (c *Cache[S]) Invalidate(hashes ...domain.StateHash) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	n := 0
	for _, h := range hashes {
		if _, ok := c.resolved[h]; ok {
			delete(c.resolved, h)
			n++
		}
	}
	return n
}

// Reset drops every resolved entry.
func (c *Cache[S]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.resolved = make(map[domain.StateHash]*entry[S])
}
