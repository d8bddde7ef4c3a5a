package guard

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ASTCache parses each unique guard/reset expression source string at most
// once and reuses the AST across every time index of a node and across
// nodes (§9 "quantifier unrolling... makes repeated evaluations across time
// steps cheap"). Bounded, unlike the interval caches in engine/incache,
// which spec.md §4.6 says never evict.
type ASTCache struct {
	cache *lru.Cache[string, *Node]
}

// NewASTCache builds an ASTCache holding at most size parsed expressions.
func NewASTCache(size int) (*ASTCache, error) {
	c, err := lru.New[string, *Node](size)
	if err != nil {
		return nil, err
	}
	return &ASTCache{cache: c}, nil
}

// Parse returns the cached AST for src, parsing and caching it on a miss.
func (a *ASTCache) Parse(src string) (*Node, error) {
	if node, ok := a.cache.Get(src); ok {
		return node, nil
	}
	node, err := Parse(src)
	if err != nil {
		return nil, err
	}
	a.cache.Add(src, node)
	return node, nil
}

// Len reports the number of cached entries, used by tests to observe
// eviction behavior.
func (a *ASTCache) Len() int { return a.cache.Len() }
