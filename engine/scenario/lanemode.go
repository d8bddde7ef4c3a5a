package scenario

import (
	"sort"

	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/automaton"
)

// modeGrower is the optional capability *automaton.ControllerIR provides;
// asserted for rather than added to automaton.Controller since growing a
// mode category is a configuration-time concern, not part of the engine's
// read-only contract with a controller.
type modeGrower interface {
	GrowModeCategory(category string, newValues []string)
}

// growLaneMode implements original_source/scenario.py:56-62
// (update_agent_lane_mode), generalized per SPEC_FULL's "Map-driven
// mode-category growth": a category literally named "LaneMode" grows
// unconditionally, and any category whose declared values already form a
// strict subset of the map's lane identifiers grows too, so a renamed
// lane-mode category (e.g. "RoadMode") still benefits without the
// controller author needing to spell the literal original name.
func growLaneMode(a *agent.Agent, m agent.Map) {
	if a == nil || a.Controller == nil || m == nil {
		return
	}
	grower, ok := a.Controller.(modeGrower)
	if !ok {
		return
	}
	laneDict := m.LaneDict()
	if len(laneDict) == 0 {
		return
	}
	laneIDs := make([]string, 0, len(laneDict))
	for id := range laneDict {
		laneIDs = append(laneIDs, id)
	}
	sort.Strings(laneIDs)
	for _, def := range a.Controller.ModeCategories() {
		if !isLaneModeCategory(def, laneIDs) {
			continue
		}
		missing := missingValues(def.Values, laneIDs)
		if len(missing) > 0 {
			grower.GrowModeCategory(def.Name, missing)
		}
	}
}

func isLaneModeCategory(def automaton.ModeDef, laneIDs []string) bool {
	if def.Name == "LaneMode" {
		return true
	}
	return len(def.Values) > 0 && isStrictSubset(def.Values, laneIDs)
}

// isStrictSubset reports whether every value in sub appears in super and
// super has at least one element sub lacks.
func isStrictSubset(sub, super []string) bool {
	superSet := make(map[string]struct{}, len(super))
	for _, v := range super {
		superSet[v] = struct{}{}
	}
	for _, v := range sub {
		if _, ok := superSet[v]; !ok {
			return false
		}
	}
	return len(super) > len(sub)
}

// missingValues returns every id in laneIDs not already present in values,
// in laneIDs' order.
func missingValues(values, laneIDs []string) []string {
	have := make(map[string]struct{}, len(values))
	for _, v := range values {
		have[v] = struct{}{}
	}
	var out []string
	for _, id := range laneIDs {
		if _, ok := have[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
