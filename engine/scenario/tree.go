package scenario

import (
	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/core"
	"github.com/compozy/verse-engine/engine/sensor"
	"github.com/compozy/verse-engine/engine/transition"
)

// Tree is the AnalysisTree §6's `simulate`/`verify` expose: a root node plus
// every descendant produced by growing a transition into a child segment.
type Tree struct {
	Root *TreeNode
}

// TreeNode wraps one analysis-tree node (§3's "Analysis Tree Node") with
// the results the transition engine computed for it and the children grown
// from its transitions. Elapsed is the simulated time already spent by the
// root's clock when this node starts, used to bound recursion by the
// scenario's horizon.
type TreeNode struct {
	Node       *transition.Node
	Elapsed    float64
	AssertHits []transition.AssertHit
	Children   []*TreeNode
}

// Walk visits n and every descendant in pre-order.
func (n *TreeNode) Walk(visit func(*TreeNode)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

func newNode(
	id core.ID,
	order []core.ID,
	agents map[core.ID]*agent.Agent,
	mp agent.Map,
	sens sensor.Provider,
) *transition.Node {
	return &transition.Node{
		ID:       id,
		AgentIDs: append([]core.ID(nil), order...),
		Agents:   agents,
		Mode:     make(map[core.ID][]string, len(order)),
		Static:   make(map[core.ID][]any, len(order)),
		Trace:    make(map[core.ID][][]float64, len(order)),
		Map:      mp,
		Sensor:   sens,
	}
}
