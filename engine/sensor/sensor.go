// Package sensor builds the per-agent environment bindings the guard
// evaluator and reset applier read from a joint world snapshot (§4.1).
package sensor

import (
	"fmt"

	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/automaton"
	"github.com/compozy/verse-engine/engine/core"
	"github.com/compozy/verse-engine/engine/env"
)

// AgentState is one agent's row in the joint world snapshot passed to Sense:
// its continuous state vector, its current mode tuple, and its static data.
type AgentState struct {
	Vector []float64
	Mode   []string
	Static []any
}

// ContField names one continuous binding slot the sensor discovered: which
// dotted key it binds, which agent's vector it reads from, and at which
// position in that agent's declared continuous field order.
type ContField struct {
	Key     string
	AgentID core.ID
	Index   int
}

// Template is the structural output of Sense: the set of continuous binding
// slots to fill at each time index. It is built once per analysis and reused
// across every time index (§4.4: "the disc snapshot is frozen... and
// reused"; the same applies to the continuous slot structure).
type Template struct {
	Fields []ContField
}

// Sensor produces environment templates from a joint world snapshot.
type Sensor struct{}

// New returns a ready-to-use Sensor. It holds no state; callers may share
// one instance across agents and time indices.
func New() *Sensor { return &Sensor{} }

// Provider is the pluggable interface *Sensor satisfies (§6's
// `SetSensor`). A scenario's default sensor treats every other agent as
// visible; a custom Provider (e.g. one that drops agents outside some
// range or applies map-derived occlusion) can be substituted without
// touching the transition engine.
type Provider interface {
	Sense(
		egoID core.ID,
		joint map[core.ID]AgentState,
		others []core.ID,
		controllers map[core.ID]automaton.Controller,
		m agent.Map,
	) (*Template, *env.Env, map[string]int, error)
}

// Sense implements §4.1: for the given agent (ego) and every agent in
// joint (including ego), split each continuous state vector into per-field
// bindings under the ego.<field> / others.<field> namespaces, emit the
// frozen discrete bindings from each agent's mode tuple (static data is not
// bound), and record the per-field count of other agents in lengthDict so
// quantifier unrolling knows how far to enumerate. "others" lists follow the
// order of the others slice, which callers pass in agent insertion order
// since Go maps do not preserve one.
func (s *Sensor) Sense(
	egoID core.ID,
	joint map[core.ID]AgentState,
	others []core.ID,
	controllers map[core.ID]automaton.Controller,
	m agent.Map,
) (*Template, *env.Env, map[string]int, error) {
	egoState, ok := joint[egoID]
	if !ok {
		return nil, nil, nil, fmt.Errorf("sensor: ego agent %s missing from joint state", egoID)
	}
	egoIR, ok := controllers[egoID]
	if !ok {
		return nil, nil, nil, fmt.Errorf("sensor: ego agent %s has no controller", egoID)
	}
	contFields, discFields := stateFields(egoIR)

	tmpl := &Template{}
	disc := env.New()

	for i, field := range contFields {
		tmpl.Fields = append(tmpl.Fields, ContField{Key: "ego." + field, AgentID: egoID, Index: i})
	}
	for i, field := range discFields {
		if i < len(egoState.Mode) {
			disc.Set("ego."+field, env.String(egoState.Mode[i]))
		}
	}

	otherIDs := make([]core.ID, len(others))
	copy(otherIDs, others)

	lengthDict := make(map[string]int)
	for _, field := range contFields {
		lengthDict[field] = 0
	}
	for idx, id := range otherIDs {
		if id == egoID {
			continue
		}
		st, ok := joint[id]
		if !ok {
			continue
		}
		for i, field := range contFields {
			key := env.OthersField(field, idx)
			tmpl.Fields = append(tmpl.Fields, ContField{Key: key, AgentID: id, Index: i})
			lengthDict[field]++
		}
		for i, field := range discFields {
			if i < len(st.Mode) {
				disc.Set(env.OthersField(field, idx), env.String(st.Mode[i]))
			}
		}
	}
	for field, n := range lengthDict {
		disc.SetOthersLen(field, n)
	}
	return tmpl, disc, lengthDict, nil
}

func stateFields(c automaton.Controller) (cont []string, disc []string) {
	for _, sd := range c.StateTypes() {
		cont = append(cont, sd.ContinuousFields...)
		disc = append(disc, sd.DiscreteFields...)
	}
	return cont, disc
}

// RebindPoint fills a fresh continuous environment from tmpl using a
// point-valued (simulation) joint vector snapshot at one time index.
func RebindPoint(tmpl *Template, vectors map[core.ID][]float64) (*env.Env, error) {
	e := env.New()
	for _, f := range tmpl.Fields {
		vec, ok := vectors[f.AgentID]
		if !ok || f.Index >= len(vec) {
			return nil, fmt.Errorf("rebind: missing vector data for %s", f.Key)
		}
		e.Set(f.Key, env.Float(vec[f.Index]))
	}
	return e, nil
}

// RebindInterval fills a fresh continuous environment from tmpl using paired
// lower/upper bound rows (verification) at one time index.
func RebindInterval(tmpl *Template, lower, upper map[core.ID][]float64) (*env.Env, error) {
	e := env.New()
	for _, f := range tmpl.Fields {
		lo, ok := lower[f.AgentID]
		if !ok || f.Index >= len(lo) {
			return nil, fmt.Errorf("rebind: missing lower bound for %s", f.Key)
		}
		hi, ok := upper[f.AgentID]
		if !ok || f.Index >= len(hi) {
			return nil, fmt.Errorf("rebind: missing upper bound for %s", f.Key)
		}
		e.Set(f.Key, env.Interval(lo[f.Index], hi[f.Index]))
	}
	return e, nil
}

// Merge overlays disc bindings onto a continuous Env, returning a single
// packed environment ready for guard/reset/assert evaluation.
func Merge(cont *env.Env, disc *env.Env) *env.Env {
	out := cont.Clone()
	for k, v := range disc.Vars {
		out.Vars[k] = v
	}
	for k, v := range disc.OthersLen {
		out.OthersLen[k] = v
	}
	return out
}
