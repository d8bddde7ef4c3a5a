package incache

import (
	"fmt"
	"reflect"

	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/automaton"
	"github.com/compozy/verse-engine/engine/core"
)

// AddedPath is a path that needs (re-)exploration after a controller edit,
// ported from to_simulate's `added_paths` return value.
type AddedPath struct {
	AgentID core.ID
	Path    automaton.ModePath
}

// Plan is to_simulate's result: the per-agent cached segments that survive
// the edit, pruned of any transition citing a removed path and patched for
// any reset-changed path, plus the paths that must be (re-)explored.
type Plan struct {
	NewCache   map[core.ID]CachedSegment
	AddedPaths []AddedPath
}

// ToSimulate implements §4.6's controller diffing: for each agent, pair old
// and new controller paths by output variable in declared order. A
// positional pair missing its new half is a removed path (any cached
// transition citing it is invalidated); a differing cond is an added path
// (must be re-explored, returned to the caller); a cond equal but differing
// val is a reset-changed path (patched in place in cached transitions
// sharing that cond, reused without re-exploration). Controller shape
// mismatch (different argument signatures or different sets of output
// variables) is an unrecoverable configuration error (§7): "the caller must
// rebuild the cache."
func ToSimulate(
	oldAgents, newAgents map[core.ID]*agent.Agent,
	cached map[core.ID]CachedSegment,
) (Plan, error) {
	var removed, added []automaton.ModePath
	addedByAgent := make(map[string]core.ID)
	var reseatChanged []automaton.ModePath

	for id, oldAgentVal := range oldAgents {
		newAgentVal, ok := newAgents[id]
		if !ok {
			return Plan{}, fmt.Errorf("incache: agent %s missing from new controller set", id)
		}
		oldCtrl, newCtrl := oldAgentVal.Controller, newAgentVal.Controller
		if !reflect.DeepEqual(oldCtrl.ArgSignature(), newCtrl.ArgSignature()) {
			return Plan{}, fmt.Errorf("incache: agent %s: controller argument signature changed", id)
		}
		oldGrouped := groupByVar(oldCtrl.GetPaths())
		newGrouped := groupByVar(newCtrl.GetPaths())
		if !sameVarSet(oldGrouped, newGrouped) {
			return Plan{}, fmt.Errorf("incache: agent %s: controller output variables changed", id)
		}
		for v, oldPaths := range oldGrouped {
			newPaths := newGrouped[v]
			n := maxInt(len(oldPaths), len(newPaths))
			for i := 0; i < n; i++ {
				var oldP, newP *automaton.ModePath
				if i < len(oldPaths) {
					oldP = &oldPaths[i]
				}
				if i < len(newPaths) {
					newP = &newPaths[i]
				}
				switch {
				case newP == nil:
					removed = append(removed, *oldP)
				case oldP == nil || oldP.Cond != newP.Cond:
					added = append(added, *newP)
					addedByAgent[pathIdentity(*newP)] = id
				case oldP.Val != newP.Val:
					reseatChanged = append(reseatChanged, *newP)
				}
			}
		}
	}

	newCache := make(map[core.ID]CachedSegment, len(cached))
	for id, seg := range cached {
		newCache[id] = patchSegment(seg, removed, reseatChanged)
	}

	addedPaths := make([]AddedPath, 0, len(added))
	for _, p := range added {
		addedPaths = append(addedPaths, AddedPath{AgentID: addedByAgent[pathIdentity(p)], Path: p})
	}
	return Plan{NewCache: newCache, AddedPaths: addedPaths}, nil
}

func groupByVar(paths []automaton.ModePath) map[string][]automaton.ModePath {
	grouped := make(map[string][]automaton.ModePath)
	for _, p := range paths {
		grouped[p.Var] = append(grouped[p.Var], p)
	}
	return grouped
}

func sameVarSet(a, b map[string][]automaton.ModePath) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if _, ok := b[v]; !ok {
			return false
		}
	}
	return true
}

func pathIdentity(p automaton.ModePath) string {
	return p.Var + "\x1f" + p.Cond + "\x1f" + p.Val
}

func patchSegment(seg CachedSegment, removed, reseatChanged []automaton.ModePath) CachedSegment {
	out := seg
	out.Transitions = make([]CachedTransition, 0, len(seg.Transitions))
	for _, trans := range seg.Transitions {
		if citesAny(trans.Paths, removed) {
			continue
		}
		trans.Paths = patchPaths(trans.Paths, reseatChanged)
		out.Transitions = append(out.Transitions, trans)
	}
	return out
}

func citesAny(paths, targets []automaton.ModePath) bool {
	for _, p := range paths {
		for _, t := range targets {
			if p == t {
				return true
			}
		}
	}
	return false
}

// patchPaths rewrites a transition's recorded paths in place for any
// reset-changed path sharing the same cond, so already-cached transitions
// pick up a new reset value without being re-explored.
func patchPaths(paths []automaton.ModePath, reseatChanged []automaton.ModePath) []automaton.ModePath {
	if len(reseatChanged) == 0 {
		return paths
	}
	out := make([]automaton.ModePath, len(paths))
	copy(out, paths)
	for i, p := range out {
		for _, rcp := range reseatChanged {
			if p.Cond == rcp.Cond {
				out[i].Val = rcp.Val
			}
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
