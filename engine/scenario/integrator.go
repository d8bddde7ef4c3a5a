package scenario

import (
	"context"

	"github.com/compozy/verse-engine/engine/agent"
)

// Integrator is the consumed continuous-dynamics collaborator of §6:
// "`advance(agent, init, mode, static, horizon, step) → trace` for
// simulation and a corresponding reach-tube producer for verification;
// consumed as opaque arrays matching the trace invariants in §3." Concrete
// integrators are explicitly out of scope (§1 Non-goals); this interface is
// the seam a caller plugs one into.
type Integrator interface {
	// Advance produces a point trace (§3 invariant i: timestamp column
	// followed by declared continuous fields) from init over
	// [0, horizon] at the given step, for simulation semantics.
	Advance(
		ctx context.Context,
		a *agent.Agent,
		init agent.Region,
		mode []string,
		static []any,
		horizon, step float64,
	) ([][]float64, error)

	// AdvanceReach produces a reach-tube trace (§3 invariant ii: paired
	// lower/upper rows per time index) from init over [0, horizon] at the
	// given step, for verification semantics.
	AdvanceReach(
		ctx context.Context,
		a *agent.Agent,
		init agent.Region,
		mode []string,
		static []any,
		horizon, step float64,
	) ([][]float64, error)
}
