package incache

import (
	"github.com/compozy/verse-engine/engine/automaton"
	"github.com/compozy/verse-engine/engine/core"
)

// CachedTransition is one simulation transition as retained in a
// CachedSegment, ported field-for-field from
// original_source/verse/analysis/incremental.py's CachedTransition.
// Transition is the index into the owning node's flat transition list the
// original's convert_sim_trans used to cross-reference; Disc/Cont are the
// destination mode tuple and successor point this transition produced.
type CachedTransition struct {
	Inits      map[core.ID][]float64
	Transition int
	Disc       []string
	Cont       []float64
	Paths      []automaton.ModePath
}

// CachedSegment is the leaf of the simulation-segment cache: a simulated
// trace plus whatever assert fired and whatever transitions were found
// while producing it, so a later check_hit can skip re-simulating (§4.6).
type CachedSegment struct {
	Trace       [][]float64
	Asserts     []string
	Transitions []CachedTransition
	Controller  automaton.Controller
	RunNum      int
	NodeID      core.ID
}

// CachedTube is the leaf of the reach-tube (flow) cache: a precomputed
// reachable tube (paired lower/upper rows per time index, same shape as
// engine/transition.Node's verification Trace), with no transition data —
// the reach-transition cache below is searched separately for those.
type CachedTube struct {
	Trace [][]float64
}

// CachedReachTrans is one verification transition as retained in a
// CachedRTTrans, ported from CachedReachTrans in incremental.py. Reset is
// the successor rectangle's flattened [low..., high...] bounds and
// ResetIdx records which continuous dimensions that reset actually
// touched, mirroring the original's separate reset/reset_idx fields.
type CachedReachTrans struct {
	Inits      map[core.ID][]float64
	Transition int
	Mode       []string
	Dest       []float64
	Reset      []float64
	ResetIdx   []int
	Paths      []automaton.ModePath
}

// CachedRTTrans is the leaf of the reach-transition cache.
type CachedRTTrans struct {
	Asserts     []string
	Transitions []CachedReachTrans
	Controller  automaton.Controller
	RunNum      int
	NodeID      core.ID
}

// CachedInit is one entry of CachedInits: the declared mode tuple and
// dimension midpoints of a cached path down to the requested depth,
// together with the provenance of the leaf it reached. Ported from
// get_cached_inits, which a driver uses to decide which inits are already
// analyzed before scheduling new work.
type CachedInit struct {
	Agent  core.ID
	Mode   []string
	Point  []float64
	RunNum int
	NodeID core.ID
}

func compositeKey(agent core.ID, mode []string) string {
	key := string(agent)
	for _, m := range mode {
		key += "\x1f" + m
	}
	return key
}
