package incache

import "github.com/compozy/verse-engine/engine/core"

// ReachTransCache is the reach-transition cache of §4.6: the rectangle
// structure of TubeCache with CachedRTTrans leaves. Ported from
// ReachTubeCache in incremental.py (named ReachTransCache here to avoid
// colliding with TubeCache's "tube" vocabulary, since this cache stores
// transition exploration results, not a raw flow).
type ReachTransCache struct {
	tm *treeMap[CachedRTTrans]
}

// NewReachTransCache builds an empty reach-transition cache.
func NewReachTransCache() *ReachTransCache {
	return &ReachTransCache{tm: newTreeMap[CachedRTTrans]()}
}

// CheckHit implements check_hit.
func (c *ReachTransCache) CheckHit(agent core.ID, mode []string, low, high []float64) (CachedRTTrans, bool) {
	c.tm.mu.RLock()
	defer c.tm.mu.RUnlock()
	return walk(c.tm.roots[compositeKey(agent, mode)], rectQuery(low, high), rectContains)
}

// AddTransitions implements add_tube for the reach-transition cache.
func (c *ReachTransCache) AddTransitions(agent core.ID, mode []string, low, high []float64, leaf CachedRTTrans) {
	c.tm.mu.Lock()
	defer c.tm.mu.Unlock()
	key := compositeKey(agent, mode)
	roots := c.tm.roots[key]
	insert(&roots, rectQuery(low, high), leaf, rectBounds, rectContains)
	c.tm.roots[key] = roots
	c.tm.tuples[key] = mode
}

// CachedInits implements get_cached_inits(n) for the reach-transition
// cache.
func (c *ReachTransCache) CachedInits(depth int) []CachedInit {
	c.tm.mu.RLock()
	defer c.tm.mu.RUnlock()
	var out []CachedInit
	for key, roots := range c.tm.roots {
		mode := c.tm.tuples[key]
		agent := agentFromKey(key)
		for _, path := range collectAt(roots, depth) {
			out = append(out, CachedInit{
				Agent: agent, Mode: mode, Point: path.Mids,
				RunNum: path.Leaf.RunNum, NodeID: path.Leaf.NodeID,
			})
		}
	}
	return out
}
