package agent

import (
	"fmt"

	"github.com/compozy/verse-engine/engine/automaton"
	"github.com/compozy/verse-engine/engine/core"
)

// Agent is an autonomous entity: an identifier, its controller, its initial
// continuous region and mode tuple, and arbitrary per-agent static data
// (e.g. a fixed lane assignment) the controller may read but never resets.
type Agent struct {
	ID         core.ID
	Controller automaton.Controller
	Init       Region
	InitMode   []string
	Static     []any
}

// Map is the opaque external collaborator (§6): a lane geometry provider
// plus whatever additional named queries a controller references. The core
// engine never interprets lane geometry itself; it only reads LaneDict to
// drive the map-derived mode-category growth step.
type Map interface {
	// LaneDict returns every declared lane identifier, keyed by id, mapped
	// to an opaque geometry payload the controller (not this module)
	// interprets.
	LaneDict() map[string]any
	// Query resolves an additional named reference the controller's guard
	// or reset expressions make against the map (e.g. `map.speed_limit`).
	Query(name string) (any, bool)
}

// Validate checks that the agent has a controller, that its init mode tuple,
// once set, is declared, and that its init region has a valid shape. An agent
// whose init mode is still empty (engine/scenario's SetInit assigns it after
// registration) passes the mode check. Agent/controller wiring errors are
// configuration errors per §7, fatal before analysis begins.
func (a *Agent) Validate() error {
	if a.Controller == nil {
		return fmt.Errorf("agent %s has no controller", a.ID)
	}
	ir, ok := a.Controller.(interface {
		ValidateModeTuple([]string) error
	})
	if ok && len(a.InitMode) > 0 {
		if err := ir.ValidateModeTuple(a.InitMode); err != nil {
			return fmt.Errorf("agent %s: %w", a.ID, err)
		}
	}
	if err := a.Init.Validate(); err != nil {
		return fmt.Errorf("agent %s: invalid init region: %w", a.ID, err)
	}
	return nil
}
