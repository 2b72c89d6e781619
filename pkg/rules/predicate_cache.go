package rules

import (
	"sync"

	"github.com/aretw0/entropia/pkg/domain"
)

type predicateKey struct {
	RuleID string
	State  domain.StateHash
}

// PredicateCache memoizes predicate results per (rule ID, state hash).
// Safe for concurrent use.
type PredicateCache struct {
	mu      sync.RWMutex
	results map[predicateKey]bool
}

// NewPredicateCache creates an empty cache.
func NewPredicateCache() *PredicateCache {
	return &PredicateCache{results: make(map[predicateKey]bool)}
}

// Get returns the cached result for ruleID on h.
func (c *PredicateCache) Get(ruleID string, h domain.StateHash) (applies, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	applies, ok = c.results[predicateKey{ruleID, h}]
	return applies, ok
}

// Put stores a result unless one is already present.
func (c *PredicateCache) Put(ruleID string, h domain.StateHash, applies bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := predicateKey{ruleID, h}
	if _, ok := c.results[k]; !ok {
		c.results[k] = applies
	}
}

// Len returns the number of cached results.
func (c *PredicateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

// Forget drops every result cached for ruleID and returns how many were removed.
func (c *PredicateCache) Forget(ruleID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.results {
		if k.RuleID == ruleID {
			delete(c.results, k)
			n++
		}
	}
	return n
}
