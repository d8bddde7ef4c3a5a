package scenario

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/core"
	"github.com/compozy/verse-engine/engine/transition"
)

// minRemainingHorizon is the smallest remaining time budget worth spawning
// another child node for; below it floating-point step accumulation could
// recurse indefinitely on a horizon that is only nominally exhausted.
const minRemainingHorizon = 1e-9

// Simulate implements §6's `simulate(horizon, step) → AnalysisTree`: it
// samples a concrete point from each agent's init region, advances every
// agent's trajectory with the configured Integrator, and recursively grows
// a child node at the earliest transition until the horizon is exhausted or
// an assert fires (§4.4).
func (s *Scenario) Simulate(ctx context.Context, horizon, step float64) (*Tree, error) {
	if err := s.validateReady(); err != nil {
		return nil, err
	}
	mode := make(map[core.ID][]string, len(s.order))
	static := make(map[core.ID][]any, len(s.order))
	point := make(map[core.ID][]float64, len(s.order))
	for _, id := range s.order {
		mode[id] = s.initMode[id]
		static[id] = s.static[id]
		point[id] = sampleRegion(s.initRegion[id])
	}
	root, err := s.buildSimNode(ctx, core.MustNewID(), mode, static, point, horizon, step)
	if err != nil {
		return nil, err
	}
	node := &TreeNode{Node: root}
	if err := s.growSim(ctx, node, horizon, step); err != nil {
		return nil, err
	}
	return &Tree{Root: node}, nil
}

// SimulateMulti runs Simulate n times, collecting every resulting tree
// (original_source/scenario.py:76-81 `simulate_multi`).
func (s *Scenario) SimulateMulti(ctx context.Context, n int, horizon, step float64) ([]*Tree, error) {
	out := make([]*Tree, 0, n)
	for i := 0; i < n; i++ {
		tree, err := s.Simulate(ctx, horizon, step)
		if err != nil {
			return nil, fmt.Errorf("scenario: simulate_multi run %d: %w", i, err)
		}
		out = append(out, tree)
	}
	return out, nil
}

func (s *Scenario) buildSimNode(
	ctx context.Context,
	id core.ID,
	mode map[core.ID][]string,
	static map[core.ID][]any,
	point map[core.ID][]float64,
	horizon, step float64,
) (*transition.Node, error) {
	node := newNode(id, s.order, s.agents, s.mp, s.sens)
	for _, agID := range s.order {
		a := s.agents[agID]
		trace, err := s.integrator.Advance(ctx, a, agent.NewPointRegion(point[agID]), mode[agID], static[agID], horizon, step)
		if err != nil {
			return nil, fmt.Errorf("scenario: advancing agent %s: %w", agID, err)
		}
		if len(trace) == 0 {
			return nil, fmt.Errorf("scenario: integrator returned an empty trace for agent %s", agID)
		}
		node.Trace[agID] = trace
		node.Mode[agID] = mode[agID]
		node.Static[agID] = static[agID]
	}
	return node, nil
}

// growSim implements §4.4's recursive consequence for one node: find its
// transitions, and if any were produced, continue analysis from the
// earliest hit index with the successor modes/regions until the remaining
// horizon is exhausted. An agent whose reset produced more than one
// destination mode tuple (invariant v's Cartesian expansion is not only a
// reset.Apply concern; it must also be reflected in how the tree branches)
// spawns one sibling child per combination.
func (s *Scenario) growSim(ctx context.Context, n *TreeNode, remainingHorizon, step float64) error {
	hits, trans, err := transition.Simulate(ctx, n.Node, s.astCache, s.evaluator)
	if err != nil {
		return err
	}
	n.AssertHits = hits
	if len(hits) > 0 || len(trans) == 0 {
		return nil
	}
	hitIdx := trans[0].HitIndex
	elapsedAtHit := n.Node.Trace[n.Node.AgentIDs[0]][hitIdx][0]
	remaining := remainingHorizon - elapsedAtHit
	if remaining < minRemainingHorizon {
		return nil
	}
	alts := make(map[core.ID][]transition.SimTransition, len(s.order))
	for _, t := range trans {
		alts[t.AgentID] = append(alts[t.AgentID], t)
	}
	for _, combo := range combineAlternatives(s.order, alts) {
		mode := make(map[core.ID][]string, len(s.order))
		static := make(map[core.ID][]any, len(s.order))
		point := make(map[core.ID][]float64, len(s.order))
		for _, id := range s.order {
			row := n.Node.Trace[id][hitIdx]
			static[id] = n.Node.Static[id]
			if t, ok := combo[id]; ok && !t.NoSuccessor {
				mode[id] = t.DstMode
				point[id] = append([]float64(nil), t.Successor.Low...)
			} else {
				mode[id] = n.Node.Mode[id]
				point[id] = append([]float64(nil), row[1:]...)
			}
		}
		child, err := s.buildSimNode(ctx, core.MustNewID(), mode, static, point, remaining, step)
		if err != nil {
			return err
		}
		childNode := &TreeNode{Node: child, Elapsed: n.Elapsed + elapsedAtHit}
		n.Children = append(n.Children, childNode)
		if err := s.growSim(ctx, childNode, remaining, step); err != nil {
			return err
		}
	}
	return nil
}

// combineAlternatives returns the Cartesian product of each agent's
// alternative transitions (an agent with no entry in alts contributes a
// single implicit "carry current state" alternative, represented by its
// absence from the returned map).
func combineAlternatives(
	order []core.ID,
	alts map[core.ID][]transition.SimTransition,
) []map[core.ID]transition.SimTransition {
	combos := []map[core.ID]transition.SimTransition{{}}
	for _, id := range order {
		choices, ok := alts[id]
		if !ok {
			continue
		}
		next := make([]map[core.ID]transition.SimTransition, 0, len(combos)*len(choices))
		for _, base := range combos {
			for _, choice := range choices {
				combo := make(map[core.ID]transition.SimTransition, len(base)+1)
				for k, v := range base {
					combo[k] = v
				}
				combo[id] = choice
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}

func (s *Scenario) validateReady() error {
	if s.integrator == nil {
		return fmt.Errorf("scenario: no integrator configured")
	}
	if len(s.order) == 0 {
		return fmt.Errorf("scenario: no agents registered")
	}
	for _, id := range s.order {
		if _, ok := s.initRegion[id]; !ok {
			return fmt.Errorf("scenario: agent %s has no init region (call SetInit)", id)
		}
	}
	return nil
}

// sampleRegion picks a uniformly random point inside r, matching
// original_source/scenario.py:80 (`sample_rect`). A point region (Low ==
// High in every dimension) samples itself exactly.
func sampleRegion(r agent.Region) []float64 {
	point := make([]float64, len(r.Low))
	for i := range r.Low {
		if r.Low[i] == r.High[i] {
			point[i] = r.Low[i]
			continue
		}
		point[i] = r.Low[i] + rand.Float64()*(r.High[i]-r.Low[i])
	}
	return point
}
