package transition

import (
	"fmt"

	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/automaton"
	"github.com/compozy/verse-engine/engine/core"
	"github.com/compozy/verse-engine/engine/env"
	"github.com/compozy/verse-engine/engine/guard"
	"github.com/compozy/verse-engine/engine/sensor"
)

// compiledPath is a satisfied-guard candidate ready for per-step
// evaluation: its guard AST (quantifier-unrolled once, per §9), its
// unevaluated Val AST, and the declaration it came from.
type compiledPath struct {
	decl     automaton.ModePath
	guardAST *guard.Node
	valAST   *guard.Node
}

// agentPrep is the frozen, per-node preparation for one agent (§4.4
// "Preparation"): the continuous-binding template, the disc snapshot taken
// at t=0, and every path compiled against t=0's agent count.
type agentPrep struct {
	id      core.ID
	agent   *agent.Agent
	ir      automaton.Controller
	tmpl    *sensor.Template
	disc    *env.Env
	paths   []compiledPath
	asserts []automaton.Assert
	others  []core.ID
	// cont is the set of dotted continuous-binding names tmpl declares,
	// used by verify.go's discrete pre-filter (guard.EvalDiscrete) to tell
	// an unresolved continuous variable apart from a genuinely unbound one.
	cont map[string]struct{}
}

// prepare runs §4.4's shared preparation step for every agent with a
// non-null controller. astCache amortizes parsing across nodes and steps
// (§9); it may be nil to parse without caching.
func prepare(node *Node, astCache *guard.ASTCache) ([]*agentPrep, error) {
	joint := make(map[core.ID]sensor.AgentState, len(node.AgentIDs))
	controllers := make(map[core.ID]automaton.Controller, len(node.AgentIDs))
	for _, id := range node.AgentIDs {
		a := node.Agents[id]
		if a == nil {
			return nil, fmt.Errorf("transition: node references unknown agent %s", id)
		}
		rows, ok := node.Trace[id]
		if !ok || len(rows) == 0 {
			return nil, fmt.Errorf("transition: agent %s has no trace", id)
		}
		joint[id] = sensor.AgentState{
			Vector: rows[0][1:],
			Mode:   node.Mode[id],
			Static: node.Static[id],
		}
		if a.Controller != nil {
			controllers[id] = a.Controller
		}
	}

	var sens sensor.Provider = node.Sensor
	if sens == nil {
		sens = sensor.New()
	}
	var preps []*agentPrep
	for _, id := range node.AgentIDs {
		a := node.Agents[id]
		if a.Controller == nil {
			continue
		}
		others := otherIDs(node.AgentIDs, id)
		tmpl, disc, _, err := sens.Sense(id, joint, others, controllers, node.Map)
		if err != nil {
			return nil, fmt.Errorf("transition: sensing agent %s: %w", id, err)
		}
		ir := a.Controller
		paths := ir.GetPaths()
		compiled := make([]compiledPath, 0, len(paths))
		for _, p := range paths {
			if p.Cond == "" {
				return nil, fmt.Errorf("transition: agent %s: empty guard on path targeting %q", id, p.Var)
			}
			guardAST, err := parseCached(astCache, p.Cond)
			if err != nil {
				return nil, fmt.Errorf("transition: agent %s: guard %q: %w", id, p.Cond, err)
			}
			unrolled, _ := guard.ParseAnyAll(guardAST, len(others))
			valAST, err := parseCached(astCache, p.Val)
			if err != nil {
				return nil, fmt.Errorf("transition: agent %s: reset value %q: %w", id, p.Val, err)
			}
			compiled = append(compiled, compiledPath{decl: p, guardAST: unrolled, valAST: valAST})
		}
		cont := make(map[string]struct{}, len(tmpl.Fields))
		for _, f := range tmpl.Fields {
			cont[f.Key] = struct{}{}
		}
		preps = append(preps, &agentPrep{
			id: id, agent: a, ir: ir, tmpl: tmpl, disc: disc,
			paths: compiled, asserts: ir.GetAsserts(), others: others, cont: cont,
		})
	}
	return preps, nil
}

func parseCached(cache *guard.ASTCache, src string) (*guard.Node, error) {
	if cache != nil {
		return cache.Parse(src)
	}
	return guard.Parse(src)
}

func otherIDs(all []core.ID, ego core.ID) []core.ID {
	out := make([]core.ID, 0, len(all))
	for _, id := range all {
		if id != ego {
			out = append(out, id)
		}
	}
	return out
}

// pointVectors extracts the continuous vector (sans timestamp column) of
// every agent present in joint at row idx.
func pointVectors(node *Node, idx int) (map[core.ID][]float64, error) {
	out := make(map[core.ID][]float64, len(node.AgentIDs))
	for _, id := range node.AgentIDs {
		rows := node.Trace[id]
		if idx >= len(rows) {
			return nil, fmt.Errorf("transition: agent %s has no trace row at index %d", id, idx)
		}
		out[id] = rows[idx][1:]
	}
	return out, nil
}

// intervalVectors extracts the paired lower/upper bound rows for time index
// idx (§3 invariant ii: row 2*idx is the lower bound, 2*idx+1 the upper).
func intervalVectors(node *Node, idx int) (lower, upper map[core.ID][]float64, err error) {
	lower = make(map[core.ID][]float64, len(node.AgentIDs))
	upper = make(map[core.ID][]float64, len(node.AgentIDs))
	for _, id := range node.AgentIDs {
		rows := node.Trace[id]
		li, ui := 2*idx, 2*idx+1
		if ui >= len(rows) {
			return nil, nil, fmt.Errorf("transition: agent %s has no interval rows at index %d", id, idx)
		}
		lower[id] = rows[li][1:]
		upper[id] = rows[ui][1:]
	}
	return lower, upper, nil
}

// pointRegionAt builds the current-point Region for agent id at index idx
// from its declared continuous field order.
func pointRegionAt(vec []float64) agent.Region {
	return agent.NewPointRegion(vec)
}

// intervalRegionAt builds the current interval Region for agent id at index
// idx from paired lower/upper vectors.
func intervalRegionAt(low, high []float64) agent.Region {
	return agent.Region{Low: append([]float64(nil), low...), High: append([]float64(nil), high...)}
}
