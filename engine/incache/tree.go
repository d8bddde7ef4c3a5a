// Package incache implements the three nested interval-tree caches of
// spec.md §4.6 (simulation segments, reach tubes, reach transitions) and the
// to_simulate controller-diffing algorithm that decides which cached work
// survives a controller edit. original_source/verse/analysis/incremental.py
// is the ground truth this package ports: it builds one IntervalTree level
// per continuous dimension per (agent, mode tuple) key, descending one
// dimension at a time and, at each level, keeping only candidates whose
// interval satisfies the cache's containment predicate before picking the
// one closest to the query's center.
package incache

import "sync"

// entry is one node of a nested interval tree: an interval on this node's
// dimension plus either a Children list (not yet at the final dimension) or
// a Leaf value (at the final dimension). Mirrors one IntervalTree node in
// original_source, generalized over the leaf payload type.
type entry[L any] struct {
	Lo, Hi   float64
	Children []*entry[L]
	Leaf     L
	HasLeaf  bool
}

// containsFn reports whether a cached interval [lo,hi] satisfies this
// cache's containment predicate against one dimension of a query. Point
// caches (simulation segments) query with a degenerate [v,v] interval and
// require the cached half-width-ε interval to contain v; rectangle caches
// (reach tubes, reach transitions) query with the agent's actual init
// rectangle and require the cached interval to contain it completely.
type containsFn func(lo, hi, qLo, qHi float64) bool

func center(lo, hi float64) float64 { return (lo + hi) / 2 }

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// walk implements check_hit: it descends one dimension at a time, at each
// level restricting to entries that satisfy contains and picking the
// surviving candidate whose center is closest to the query's, then returns
// the leaf reached at the final dimension, or the zero value and false if
// any level has no surviving candidate.
func walk[L any](roots []*entry[L], query [][2]float64, contains containsFn) (L, bool) {
	var zero L
	cur := roots
	for depth, q := range query {
		best := closest(cur, q, contains)
		if best == nil {
			return zero, false
		}
		if depth == len(query)-1 {
			if !best.HasLeaf {
				return zero, false
			}
			return best.Leaf, true
		}
		cur = best.Children
	}
	return zero, false
}

func closest[L any](cur []*entry[L], q [2]float64, contains containsFn) *entry[L] {
	var best *entry[L]
	var bestDist float64
	qc := center(q[0], q[1])
	for _, e := range cur {
		if !contains(e.Lo, e.Hi, q[0], q[1]) {
			continue
		}
		dist := absF(center(e.Lo, e.Hi) - qc)
		if best == nil || dist < bestDist {
			best, bestDist = e, dist
		}
	}
	return best
}

// insert implements add_*: it walks the same path check_hit would, creating
// any level missing an already-containing entry via newBounds, and writes
// leaf at the final dimension. An existing containing entry at a level is
// reused rather than duplicated, matching the Python implementation's use
// of a single IntervalTree per level (re-adding the same bucket just
// descends into it).
func insert[L any](roots *[]*entry[L], query [][2]float64, leaf L, newBounds func(qLo, qHi float64) (float64, float64), contains containsFn) {
	cur := roots
	for depth, q := range query {
		var found *entry[L]
		for _, e := range *cur {
			if contains(e.Lo, e.Hi, q[0], q[1]) {
				found = e
				break
			}
		}
		if found == nil {
			lo, hi := newBounds(q[0], q[1])
			found = &entry[L]{Lo: lo, Hi: hi}
			*cur = append(*cur, found)
		}
		if depth == len(query)-1 {
			found.Leaf = leaf
			found.HasLeaf = true
			return
		}
		cur = &found.Children
	}
}

// collectAt implements iter_tree: it gathers every path through the tree
// that is exactly depth+1 levels deep from roots, returning each path's
// per-level interval midpoints together with the leaf reached at its end.
// depth == 0 means roots itself holds the leaves.
func collectAt[L any](roots []*entry[L], depth int) []midPath[L] {
	var out []midPath[L]
	for _, e := range roots {
		mid := center(e.Lo, e.Hi)
		if depth == 0 {
			if !e.HasLeaf {
				continue
			}
			out = append(out, midPath[L]{Mids: []float64{mid}, Leaf: e.Leaf})
			continue
		}
		for _, sub := range collectAt(e.Children, depth-1) {
			out = append(out, midPath[L]{Mids: append([]float64{mid}, sub.Mids...), Leaf: sub.Leaf})
		}
	}
	return out
}

// midPath is one path collectAt found: the dimension midpoints it passed
// through and the leaf value it reached.
type midPath[L any] struct {
	Mids []float64
	Leaf L
}

// treeMap is the shared roots-by-key storage every cache type embeds,
// protected for the concurrent-driver access spec.md §5 requires ("a
// correct implementation protects them with whatever synchronization the
// driver's parallelism demands").
type treeMap[L any] struct {
	mu    sync.RWMutex
	roots map[string][]*entry[L]
	// tuples recovers the original mode tuple for a composite key, since
	// map keys must be comparable but CachedInits needs to report the
	// declared mode strings back to the caller.
	tuples map[string][]string
}

func newTreeMap[L any]() *treeMap[L] {
	return &treeMap[L]{roots: make(map[string][]*entry[L]), tuples: make(map[string][]string)}
}
