package transition

import (
	"context"
	"fmt"

	"github.com/compozy/verse-engine/engine/assert"
	"github.com/compozy/verse-engine/engine/core"
	"github.com/compozy/verse-engine/engine/env"
	"github.com/compozy/verse-engine/engine/guard"
	"github.com/compozy/verse-engine/engine/reset"
	"github.com/compozy/verse-engine/engine/sensor"
)

// Simulate implements §4.4: the simulation-semantics transition search for
// one analysis-tree node. It walks the node's point trace index by index,
// checking every prepared agent's asserts before its guards (assert
// precedence is absolute: the first index at which any agent's assert
// fires ends the search immediately, with no transitions reported) and
// stops at the first index where at least one agent produces a successor,
// reporting every agent's successor at that index together.
func Simulate(
	ctx context.Context,
	node *Node,
	astCache *guard.ASTCache,
	evaluator *assert.CELEvaluator,
) ([]AssertHit, []SimTransition, error) {
	preps, err := prepare(node, astCache)
	if err != nil {
		return nil, nil, err
	}
	if len(preps) == 0 {
		return nil, nil, nil
	}
	steps := minPointSteps(node)
	for idx := 0; idx < steps; idx++ {
		vectors, err := pointVectors(node, idx)
		if err != nil {
			return nil, nil, err
		}
		var hits []AssertHit
		type firing struct {
			prep  *agentPrep
			e     *env.Env
			fired []reset.FiredPath
		}
		var firings []firing
		for _, p := range preps {
			cont, err := sensor.RebindPoint(p.tmpl, vectors)
			if err != nil {
				return nil, nil, err
			}
			e := sensor.Merge(cont, p.disc)
			hit, err := assert.Check(ctx, evaluator, p.asserts, e)
			if err != nil {
				return nil, nil, fmt.Errorf("transition: agent %s: %w", p.id, err)
			}
			if hit != nil {
				hits = append(hits, AssertHit{AgentID: p.id, Label: hit.Label})
				continue
			}
			var fired []reset.FiredPath
			for _, cp := range p.paths {
				v, err := guard.EvalPoint(cp.guardAST, e)
				if err != nil {
					return nil, nil, fmt.Errorf("transition: agent %s: guard %q: %w", p.id, cp.decl.Cond, err)
				}
				if isTruthy(v) {
					fired = append(fired, reset.FiredPath{Path: cp.decl, Val: cp.valAST})
				}
			}
			if len(fired) > 0 {
				firings = append(firings, firing{prep: p, e: e, fired: fired})
			}
		}
		if len(hits) > 0 {
			return hits, nil, nil
		}
		if len(firings) == 0 {
			continue
		}
		transitions := make([]SimTransition, 0, len(firings))
		for _, f := range firings {
			srcMode := node.Mode[f.prep.id]
			region := pointRegionAt(vectors[f.prep.id])
			outcome, err := reset.Apply(f.prep.ir, f.fired, srcMode, region, f.e, false)
			if err != nil {
				return nil, nil, fmt.Errorf("transition: agent %s: %w", f.prep.id, err)
			}
			transitions = append(transitions, buildSimTransitions(f.prep.id, srcMode, outcome, idx)...)
		}
		return nil, transitions, nil
	}
	return nil, nil, nil
}

func buildSimTransitions(id core.ID, srcMode []string, outcome reset.Outcome, idx int) []SimTransition {
	if outcome.NoSuccessor {
		return []SimTransition{{
			AgentID: id, SrcMode: srcMode, NoSuccessor: true,
			Successor: outcome.Successor, HitIndex: idx,
		}}
	}
	out := make([]SimTransition, 0, len(outcome.ModeTuples))
	for _, tuple := range outcome.ModeTuples {
		out = append(out, SimTransition{
			AgentID: id, SrcMode: srcMode, DstMode: tuple,
			Successor: outcome.Successor, HitIndex: idx,
		})
	}
	return out
}

func isTruthy(v env.Value) bool {
	return v.Kind == env.KindFloat && v.Num != 0
}

func minPointSteps(node *Node) int {
	steps := -1
	for _, id := range node.AgentIDs {
		n := len(node.Trace[id])
		if steps == -1 || n < steps {
			steps = n
		}
	}
	if steps < 0 {
		return 0
	}
	return steps
}
