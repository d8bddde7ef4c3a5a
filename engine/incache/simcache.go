package incache

import "github.com/compozy/verse-engine/engine/core"

// SimSegmentCache is the simulation-segment cache of §4.6: keyed by
// (agent_id, *mode_tuple), one interval-tree level per continuous
// dimension, each level a half-width-ε interval around the cached scalar
// init value. Ported from SimTraceCache in incremental.py.
type SimSegmentCache struct {
	eps float64
	tm  *treeMap[CachedSegment]
}

// NewSimSegmentCache builds a cache whose point intervals have half-width
// eps (pkg/config's CacheConfig.Epsilon, §9).
func NewSimSegmentCache(eps float64) *SimSegmentCache {
	return &SimSegmentCache{eps: eps, tm: newTreeMap[CachedSegment]()}
}

func pointContains(lo, hi, qLo, _ float64) bool {
	return qLo >= lo && qLo <= hi
}

func (c *SimSegmentCache) pointBounds(qLo, _ float64) (float64, float64) {
	return qLo - c.eps, qLo + c.eps
}

func pointQuery(init []float64) [][2]float64 {
	q := make([][2]float64, len(init))
	for i, v := range init {
		q[i] = [2]float64{v, v}
	}
	return q
}

// CheckHit implements check_hit: a hit requires every dimension's init
// scalar to fall inside that level's cached interval.
func (c *SimSegmentCache) CheckHit(agent core.ID, mode []string, init []float64) (CachedSegment, bool) {
	c.tm.mu.RLock()
	defer c.tm.mu.RUnlock()
	return walk(c.tm.roots[compositeKey(agent, mode)], pointQuery(init), pointContains)
}

// AddSegment implements add_segment: it inserts seg along the path for
// init, creating any missing half-width-ε levels.
func (c *SimSegmentCache) AddSegment(agent core.ID, mode []string, init []float64, seg CachedSegment) {
	c.tm.mu.Lock()
	defer c.tm.mu.Unlock()
	key := compositeKey(agent, mode)
	roots := c.tm.roots[key]
	insert(&roots, pointQuery(init), seg, c.pointBounds, pointContains)
	c.tm.roots[key] = roots
	c.tm.tuples[key] = mode
}

// CachedInits implements get_cached_inits(n): every cached init seen so far,
// down to depth dimensions, across every (agent, mode) key, so a driver can
// tell which inits are already analyzed before scheduling new work.
func (c *SimSegmentCache) CachedInits(depth int) []CachedInit {
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

func agentFromKey(key string) core.ID {
	for i := 0; i < len(key); i++ {
		if key[i] == '\x1f' {
			return core.ID(key[:i])
		}
	}
	return core.ID(key)
}
