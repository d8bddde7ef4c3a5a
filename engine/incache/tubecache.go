package incache

import "github.com/compozy/verse-engine/engine/core"

// rectContains implements the rectangle caches' containment predicate: the
// query rectangle [qLo,qHi] must lie entirely within the cached interval
// [lo,hi] (TubeCache.check_hit's `t.begin <= low and high <= t.end`).
func rectContains(lo, hi, qLo, qHi float64) bool {
	return lo <= qLo && qHi <= hi
}

func rectBounds(qLo, qHi float64) (float64, float64) {
	return qLo, qHi
}

func rectQuery(low, high []float64) [][2]float64 {
	q := make([][2]float64, len(low))
	for i := range low {
		q[i] = [2]float64{low[i], high[i]}
	}
	return q
}

// TubeCache is the reach-tube (flow) cache of §4.6: same nested structure
// as SimSegmentCache, but each level's interval is the exact init
// rectangle bound rather than an ε-padded point, and a hit requires the
// query rectangle to be contained in the cached one. Ported from TubeCache
// in incremental.py.
type TubeCache struct {
	tm *treeMap[CachedTube]
}

// NewTubeCache builds an empty reach-tube cache.
func NewTubeCache() *TubeCache {
	return &TubeCache{tm: newTreeMap[CachedTube]()}
}

// CheckHit implements check_hit: the cached rectangle at every level must
// contain the query's [low,high] for that dimension.
func (c *TubeCache) CheckHit(agent core.ID, mode []string, low, high []float64) (CachedTube, bool) {
	c.tm.mu.RLock()
	defer c.tm.mu.RUnlock()
	return walk(c.tm.roots[compositeKey(agent, mode)], rectQuery(low, high), rectContains)
}

// AddTube implements add_tube.
func (c *TubeCache) AddTube(agent core.ID, mode []string, low, high []float64, tube CachedTube) {
	c.tm.mu.Lock()
	defer c.tm.mu.Unlock()
	key := compositeKey(agent, mode)
	roots := c.tm.roots[key]
	insert(&roots, rectQuery(low, high), tube, rectBounds, rectContains)
	c.tm.roots[key] = roots
	c.tm.tuples[key] = mode
}
