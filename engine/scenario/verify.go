package scenario

import (
	"context"
	"fmt"

	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/core"
	"github.com/compozy/verse-engine/engine/transition"
)

// Verify implements §6's `verify(horizon, step) → AnalysisTree`: it advances
// every agent's reach-tube from its init region (a point init is already a
// zero-width Region per SPEC_FULL's degenerate-region note, so no separate
// promotion step is needed) and recursively grows a child node from the
// latest point every agent's hit window has settled by, for every
// combination of destination mode tuples the window produced (§4.5).
func (s *Scenario) Verify(ctx context.Context, horizon, step float64) (*Tree, error) {
	if err := s.validateReady(); err != nil {
		return nil, err
	}
	mode := make(map[core.ID][]string, len(s.order))
	static := make(map[core.ID][]any, len(s.order))
	region := make(map[core.ID]agent.Region, len(s.order))
	for _, id := range s.order {
		mode[id] = s.initMode[id]
		static[id] = s.static[id]
		region[id] = s.initRegion[id]
	}
	root, err := s.buildVerifyNode(ctx, core.MustNewID(), mode, static, region, horizon, step)
	if err != nil {
		return nil, err
	}
	node := &TreeNode{Node: root}
	if err := s.growVerify(ctx, node, horizon, step); err != nil {
		return nil, err
	}
	return &Tree{Root: node}, nil
}

func (s *Scenario) buildVerifyNode(
	ctx context.Context,
	id core.ID,
	mode map[core.ID][]string,
	static map[core.ID][]any,
	region map[core.ID]agent.Region,
	horizon, step float64,
) (*transition.Node, error) {
	node := newNode(id, s.order, s.agents, s.mp, s.sens)
	for _, agID := range s.order {
		a := s.agents[agID]
		trace, err := s.integrator.AdvanceReach(ctx, a, region[agID], mode[agID], static[agID], horizon, step)
		if err != nil {
			return nil, fmt.Errorf("scenario: advancing reach-tube for agent %s: %w", agID, err)
		}
		if len(trace) < 2 || len(trace)%2 != 0 {
			return nil, fmt.Errorf("scenario: integrator returned a malformed reach-tube for agent %s", agID)
		}
		node.Trace[agID] = trace
		node.Mode[agID] = mode[agID]
		node.Static[agID] = static[agID]
	}
	return node, nil
}

// growVerify implements §4.5's recursive consequence: find this node's hit
// windows, and for every destination-mode combination across agents,
// continue analysis from the latest index any agent in the combination
// settled by. Continuing from the latest shared index rather than each
// agent's own window end keeps every agent's state defined at one common
// time the next node's integrator can start from; an agent's successor
// region, unioned across its own window, remains a sound over-approximation
// at any later time up to its next transition.
func (s *Scenario) growVerify(ctx context.Context, n *TreeNode, remainingHorizon, step float64) error {
	hits, trans, err := transition.Verify(n.Node, s.astCache)
	if err != nil {
		return err
	}
	n.AssertHits = hits
	if len(hits) > 0 || len(trans) == 0 {
		return nil
	}
	alts := make(map[core.ID][]transition.VerifyTransition, len(s.order))
	for _, t := range trans {
		alts[t.AgentID] = append(alts[t.AgentID], t)
	}
	for _, combo := range combineVerifyAlternatives(s.order, alts) {
		sharedIdx := 0
		for _, t := range combo {
			if t.MaxHitIndex > sharedIdx {
				sharedIdx = t.MaxHitIndex
			}
		}
		elapsed := n.Node.Trace[n.Node.AgentIDs[0]][2*sharedIdx][0]
		remaining := remainingHorizon - elapsed
		if remaining < minRemainingHorizon {
			continue
		}
		mode := make(map[core.ID][]string, len(s.order))
		static := make(map[core.ID][]any, len(s.order))
		region := make(map[core.ID]agent.Region, len(s.order))
		for _, id := range s.order {
			static[id] = n.Node.Static[id]
			if t, ok := combo[id]; ok && !t.NoSuccessor {
				mode[id] = t.DstMode
				region[id] = t.Successor.Clone()
				continue
			}
			mode[id] = n.Node.Mode[id]
			rows := n.Node.Trace[id]
			region[id] = agent.Region{
				Low:  append([]float64(nil), rows[2*sharedIdx][1:]...),
				High: append([]float64(nil), rows[2*sharedIdx+1][1:]...),
			}
		}
		child, err := s.buildVerifyNode(ctx, core.MustNewID(), mode, static, region, remaining, step)
		if err != nil {
			return err
		}
		childNode := &TreeNode{Node: child, Elapsed: n.Elapsed + elapsed}
		n.Children = append(n.Children, childNode)
		if err := s.growVerify(ctx, childNode, remaining, step); err != nil {
			return err
		}
	}
	return nil
}

func combineVerifyAlternatives(
	order []core.ID,
	alts map[core.ID][]transition.VerifyTransition,
) []map[core.ID]transition.VerifyTransition {
	combos := []map[core.ID]transition.VerifyTransition{{}}
	for _, id := range order {
		choices, ok := alts[id]
		if !ok {
			continue
		}
		next := make([]map[core.ID]transition.VerifyTransition, 0, len(combos)*len(choices))
		for _, base := range combos {
			for _, choice := range choices {
				combo := make(map[core.ID]transition.VerifyTransition, len(base)+1)
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
