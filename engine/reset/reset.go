// Package reset implements the Reset Applier (§4.3): evaluating the reset
// half of every satisfied guarded path for one agent at one step, grouping
// by target variable, and Cartesian-expanding independent discrete targets
// into the full set of successor mode tuples paired with a successor
// continuous rectangle.
package reset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/automaton"
	"github.com/compozy/verse-engine/engine/env"
	"github.com/compozy/verse-engine/engine/guard"
)

// FiredPath pairs a satisfied path's declaration with its parsed Val
// expression, so callers parse (and cache) guard/reset ASTs once per unique
// source string (§9) and hand the applier only what fired this step.
type FiredPath struct {
	Path automaton.ModePath
	Val  *guard.Node
}

// Outcome is the applier's output for one agent at one step.
type Outcome struct {
	// ModeTuples is the Cartesian-expanded set of successor mode tuples.
	// Empty with NoSuccessor true means at least one targeted mode category
	// ended with an empty candidate set, so the Cartesian expansion has no
	// tuples (§4.3, §7 "no-successor-mode warning").
	ModeTuples  [][]string
	Successor   agent.Region
	NoSuccessor bool
}

const egoPrefix = "ego."

// Apply implements §4.3. ir supplies the declared mode-category order (to
// pad categories no fired path targets from currentMode) and the declared
// continuous field order (to pad dimensions no fired path targets from
// currentRegion). verify selects interval evaluation of continuous reset
// expressions (Region has genuine width) versus scalar evaluation
// (currentRegion is a point, Low == High per dimension).
func Apply(
	ir automaton.Controller,
	fired []FiredPath,
	currentMode []string,
	currentRegion agent.Region,
	e *env.Env,
	verify bool,
) (Outcome, error) {
	if len(fired) == 0 {
		return Outcome{ModeTuples: [][]string{append([]string(nil), currentMode...)}, Successor: currentRegion.Clone()}, nil
	}

	contFields := continuousFieldOrder(ir)
	contIndex := make(map[string]int, len(contFields))
	for i, f := range contFields {
		contIndex[f] = i
	}

	discreteVals := make(map[string]map[string]struct{})
	var discreteOrder []string
	successor := currentRegion.Clone()

	var order []string
	seen := map[string]struct{}{}
	for _, fp := range fired {
		if _, ok := seen[fp.Path.Var]; !ok {
			seen[fp.Path.Var] = struct{}{}
			order = append(order, fp.Path.Var)
		}
	}

	for _, target := range order {
		for _, fp := range fired {
			if fp.Path.Var != target {
				continue
			}
			if fp.Path.IsDiscrete {
				idx, ok := ir.ModeIndex(target)
				if !ok {
					return Outcome{}, fmt.Errorf("reset: target %q is not a declared mode category", target)
				}
				vals, err := guard.EvalDiscreteValues(fp.Val, e)
				if err != nil {
					return Outcome{}, fmt.Errorf("reset: agent mode %q: %w", target, err)
				}
				set, ok := discreteVals[target]
				if !ok {
					set = make(map[string]struct{})
					discreteVals[target] = set
					discreteOrder = append(discreteOrder, target)
				}
				modeDefs := ir.ModeCategories()
				for _, v := range vals {
					if idx < len(modeDefs) && len(modeDefs[idx].Values) > 0 && !modeDefs[idx].HasValue(v) {
						return Outcome{}, fmt.Errorf(
							"reset: mode category %q: reset value %q not declared", modeDefs[idx].Name, v,
						)
					}
					set[v] = struct{}{}
				}
			} else {
				field := strings.TrimPrefix(target, egoPrefix)
				idx, ok := contIndex[field]
				if !ok {
					return Outcome{}, fmt.Errorf("reset: target %q is not a declared continuous field", target)
				}
				low, high, err := evalContinuous(fp.Val, e, verify)
				if err != nil {
					return Outcome{}, fmt.Errorf("reset: agent field %q: %w", target, err)
				}
				successor = successor.WithDim(idx, low, high)
			}
		}
	}

	tuples := cartesianModes(ir, discreteOrder, discreteVals, currentMode)
	if len(discreteOrder) > 0 && len(tuples) == 0 {
		return Outcome{NoSuccessor: true, Successor: successor}, nil
	}
	return Outcome{ModeTuples: tuples, Successor: successor}, nil
}

// cartesianModes implements invariant (v): the Cartesian expansion of
// independent reset variables is complete. Categories no fired path
// targeted inherit currentMode unchanged; each targeted category
// contributes its deduped, sorted candidate-value list (sorted so the
// expansion is deterministic across runs, §8 "Cartesian completeness").
func cartesianModes(
	ir automaton.Controller,
	discreteOrder []string,
	discreteVals map[string]map[string]struct{},
	currentMode []string,
) [][]string {
	modeDefs := ir.ModeCategories()
	n := len(modeDefs)
	choices := make([][]string, n)
	for i, md := range modeDefs {
		if set, ok := discreteVals[md.Name]; ok {
			vals := make([]string, 0, len(set))
			for v := range set {
				vals = append(vals, v)
			}
			sort.Strings(vals)
			choices[i] = vals
			continue
		}
		cur := ""
		if i < len(currentMode) {
			cur = currentMode[i]
		}
		choices[i] = []string{cur}
	}
	_ = discreteOrder
	return expand(choices)
}

func expand(choices [][]string) [][]string {
	if len(choices) == 0 {
		return nil
	}
	for _, c := range choices {
		if len(c) == 0 {
			return nil
		}
	}
	result := [][]string{{}}
	for _, options := range choices {
		next := make([][]string, 0, len(result)*len(options))
		for _, partial := range result {
			for _, opt := range options {
				tuple := append(append([]string(nil), partial...), opt)
				next = append(next, tuple)
			}
		}
		result = next
	}
	return result
}

func evalContinuous(node *guard.Node, e *env.Env, verify bool) (low, high float64, err error) {
	if verify {
		return guard.EvalIntervalValue(node, e)
	}
	v, err := guard.EvalPoint(node, e)
	if err != nil {
		return 0, 0, err
	}
	f, err := v.AsFloat()
	if err != nil {
		return 0, 0, err
	}
	return f, f, nil
}

func continuousFieldOrder(ir automaton.Controller) []string {
	var out []string
	for _, sd := range ir.StateTypes() {
		out = append(out, sd.ContinuousFields...)
	}
	return out
}
