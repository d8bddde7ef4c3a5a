package transition

import (
	"fmt"
	"strings"

	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/assert"
	"github.com/compozy/verse-engine/engine/core"
	"github.com/compozy/verse-engine/engine/env"
	"github.com/compozy/verse-engine/engine/guard"
	"github.com/compozy/verse-engine/engine/reset"
	"github.com/compozy/verse-engine/engine/sensor"
)

// noSuccessorKey is the accumulation key for the no-successor-mode
// sentinel, distinct from any real mode-tuple join since mode category
// names never contain NUL.
const noSuccessorKey = "\x00"

// accumKey identifies one (agent, destination mode tuple) pair being
// unioned across a hit window.
type accumKey struct {
	agent core.ID
	dest  string
}

type accum struct {
	srcMode  []string
	dstMode  []string
	region   agent.Region
	noSucc   bool
	minIndex int
	maxIndex int
}

// Verify implements §4.5: the verification-semantics transition search.
// Each compiled path is first pre-filtered once, before the time loop, by
// discrete pruning (guard.EvalDiscrete); a path proven unsatisfiable from
// discrete information alone never needs interval evaluation at any time
// index (§4.2 "discrete pruning"). The surviving paths are then evaluated
// index by index with hybrid pruning (guard.EvalContained's hit result,
// `!= TriFalse`, keeps both True and Unknown candidates, §4.2: "conservative,
// no false negatives"); every index that produces at least one candidate
// opens or extends a hit window, and successor rectangles are unioned
// componentwise across the window per (agent, destination) pair (§4.5).
// The window closes, and the accumulated transitions are returned, at the
// first index following a hit that produces no candidates at all, at an
// index where any active path is fully contained in its guard
// (guard.EvalContained's contained result, `== TriTrue`: the box can no
// longer leave the guard, so the transition is unavoidable and no later
// index adds information, §4.2.4, mirroring
// original_source/scenario.py:336-337's `if any_contained: break`), or at
// the end of the trace. As in simulation, an assert firing at any index
// preempts the entire search: no transitions are reported (§7, §8).
func Verify(node *Node, astCache *guard.ASTCache) ([]AssertHit, []VerifyTransition, error) {
	preps, err := prepare(node, astCache)
	if err != nil {
		return nil, nil, err
	}
	if len(preps) == 0 {
		return nil, nil, nil
	}
	active := make(map[core.ID][]compiledPath, len(preps))
	for _, p := range preps {
		for _, cp := range p.paths {
			tri, err := guard.EvalDiscrete(cp.guardAST, p.disc, p.cont)
			if err != nil {
				return nil, nil, fmt.Errorf("transition: agent %s: discrete pruning %q: %w", p.id, cp.decl.Cond, err)
			}
			if tri == guard.TriFalse {
				continue
			}
			active[p.id] = append(active[p.id], cp)
		}
	}

	steps := minIntervalSteps(node)
	results := make(map[accumKey]*accum)
	windowOpen := false
	for idx := 0; idx < steps; idx++ {
		lower, upper, err := intervalVectors(node, idx)
		if err != nil {
			return nil, nil, err
		}
		var hits []AssertHit
		containedThisIndex := false
		type firing struct {
			prep  *agentPrep
			e     *env.Env
			fired []reset.FiredPath
		}
		var firings []firing
		for _, p := range preps {
			cont, err := sensor.RebindInterval(p.tmpl, lower, upper)
			if err != nil {
				return nil, nil, err
			}
			e := sensor.Merge(cont, p.disc)
			hit, err := assert.CheckInterval(p.asserts, e)
			if err != nil {
				return nil, nil, fmt.Errorf("transition: agent %s: %w", p.id, err)
			}
			if hit != nil {
				hits = append(hits, AssertHit{AgentID: p.id, Label: hit.Label})
				continue
			}
			var fired []reset.FiredPath
			anyContained := false
			for _, cp := range active[p.id] {
				hit, contained, err := guard.EvalContained(cp.guardAST, e)
				if err != nil {
					return nil, nil, fmt.Errorf("transition: agent %s: guard %q: %w", p.id, cp.decl.Cond, err)
				}
				if hit {
					fired = append(fired, reset.FiredPath{Path: cp.decl, Val: cp.valAST})
				}
				if contained {
					anyContained = true
				}
			}
			if len(fired) > 0 {
				firings = append(firings, firing{prep: p, e: e, fired: fired})
			}
			if anyContained {
				containedThisIndex = true
			}
		}
		if len(hits) > 0 {
			return hits, nil, nil
		}
		if len(firings) == 0 {
			if windowOpen {
				break
			}
			continue
		}
		windowOpen = true
		for _, f := range firings {
			srcMode := node.Mode[f.prep.id]
			region := intervalRegionAt(lower[f.prep.id], upper[f.prep.id])
			outcome, err := reset.Apply(f.prep.ir, f.fired, srcMode, region, f.e, true)
			if err != nil {
				return nil, nil, fmt.Errorf("transition: agent %s: %w", f.prep.id, err)
			}
			accumulate(results, f.prep.id, srcMode, outcome, idx)
		}
		if containedThisIndex {
			break
		}
	}
	return nil, flatten(results), nil
}

func accumulate(results map[accumKey]*accum, id core.ID, srcMode []string, outcome reset.Outcome, idx int) {
	if outcome.NoSuccessor {
		mergeAccum(results, accumKey{agent: id, dest: noSuccessorKey}, srcMode, nil, outcome.Successor, true, idx)
		return
	}
	for _, tuple := range outcome.ModeTuples {
		mergeAccum(results, accumKey{agent: id, dest: strings.Join(tuple, "\x1f")}, srcMode, tuple, outcome.Successor, false, idx)
	}
}

func mergeAccum(
	results map[accumKey]*accum,
	key accumKey,
	srcMode, dstMode []string,
	region agent.Region,
	noSucc bool,
	idx int,
) {
	a, ok := results[key]
	if !ok {
		results[key] = &accum{
			srcMode: srcMode, dstMode: dstMode, region: region.Clone(),
			noSucc: noSucc, minIndex: idx, maxIndex: idx,
		}
		return
	}
	a.region = a.region.Union(region)
	if idx < a.minIndex {
		a.minIndex = idx
	}
	if idx > a.maxIndex {
		a.maxIndex = idx
	}
}

func flatten(results map[accumKey]*accum) []VerifyTransition {
	if len(results) == 0 {
		return nil
	}
	out := make([]VerifyTransition, 0, len(results))
	for k, a := range results {
		out = append(out, VerifyTransition{
			AgentID: k.agent, SrcMode: a.srcMode, DstMode: a.dstMode,
			NoSuccessor: a.noSucc, Successor: a.region,
			MinHitIndex: a.minIndex, MaxHitIndex: a.maxIndex,
		})
	}
	return out
}

func minIntervalSteps(node *Node) int {
	steps := -1
	for _, id := range node.AgentIDs {
		n := len(node.Trace[id]) / 2
		if steps == -1 || n < steps {
			steps = n
		}
	}
	if steps < 0 {
		return 0
	}
	return steps
}
