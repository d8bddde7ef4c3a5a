// Package transition implements the per-node orchestration described in
// §4.4 (simulation) and §4.5 (verification): collecting every agent's
// candidate guarded transitions, evaluating guards, applying resets, and
// producing the transition set for one analysis-tree node.
package transition

import (
	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/core"
	"github.com/compozy/verse-engine/engine/sensor"
)

// Node is the Analysis Tree Node the engine consumes (§3, "consumed, not
// owned"). AgentIDs fixes the insertion order the spec's ordering guarantee
// (§5) requires, since Go maps do not preserve one.
type Node struct {
	ID       core.ID
	AgentIDs []core.ID
	Agents   map[core.ID]*agent.Agent
	Mode     map[core.ID][]string
	Static   map[core.ID][]any
	// Trace holds, per agent, a sequence of rows: column 0 is the
	// timestamp, followed by declared continuous fields in order (§3
	// invariant i). In verification traces every timestep occupies two
	// consecutive rows, lower bound then upper bound (§3 invariant ii).
	Trace map[core.ID][][]float64
	Map   agent.Map
	// Sensor overrides the default visibility sensor (§6 `SetSensor`). Nil
	// falls back to sensor.New(), the unrestricted default.
	Sensor sensor.Provider
}

// AssertHit is one agent's fired assert, keyed by agent for the node-level
// result (§3, §7).
type AssertHit struct {
	AgentID core.ID
	Label   string
}

// SimTransition is one simulation-semantics transition (§3).
type SimTransition struct {
	AgentID     core.ID
	SrcMode     []string
	DstMode     []string // nil when NoSuccessor
	NoSuccessor bool
	Successor   agent.Region
	HitIndex    int
}

// VerifyTransition is one verification-semantics transition (§3).
type VerifyTransition struct {
	AgentID      core.ID
	SrcMode      []string
	DstMode      []string
	NoSuccessor  bool
	Successor    agent.Region
	MinHitIndex  int
	MaxHitIndex  int
}
