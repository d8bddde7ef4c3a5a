// Package scenario implements the top-level API of §6: a mutable
// collection of agents, a map, and a sensor that together produce analysis
// trees via Simulate and Verify. It is the Go counterpart of
// original_source/scenario.py's Scenario class, generalizing its
// lane-mode growth step and restating its set_init validation rules (see
// DESIGN.md).
package scenario

import (
	"fmt"

	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/assert"
	"github.com/compozy/verse-engine/engine/core"
	"github.com/compozy/verse-engine/engine/guard"
	"github.com/compozy/verse-engine/engine/sensor"
	"github.com/compozy/verse-engine/pkg/config"
)

// Scenario collects agents, a map, and a sensor, and drives simulation and
// verification over them (§6's `simulate`, `verify`, `add_agent`,
// `set_map`, `set_sensor`, `set_init`).
type Scenario struct {
	order      []core.ID
	agents     map[core.ID]*agent.Agent
	initRegion map[core.ID]agent.Region
	initMode   map[core.ID][]string
	static     map[core.ID][]any

	mp         agent.Map
	sens       sensor.Provider
	integrator Integrator

	astCache  *guard.ASTCache
	evaluator *assert.CELEvaluator
}

// New builds an empty Scenario sized by cfg (pkg/config's Guard and Assert
// sections, §9). integrator supplies the continuous dynamics (§6's
// consumed Integrator interface); it is never safe to omit since
// Simulate/Verify cannot advance trajectories without one. A nil cfg uses
// config.Default().
func New(integrator Integrator, cfg *config.Config) (*Scenario, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	astCache, err := guard.NewASTCache(cfg.Guard.ASTCacheSize)
	if err != nil {
		return nil, fmt.Errorf("scenario: building guard cache: %w", err)
	}
	evaluator, err := assert.NewCELEvaluator(
		assert.WithCostLimit(cfg.Assert.CostLimit),
		assert.WithCacheSize(cfg.Assert.ProgramCache),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario: building assert evaluator: %w", err)
	}
	return &Scenario{
		agents:     make(map[core.ID]*agent.Agent),
		initRegion: make(map[core.ID]agent.Region),
		initMode:   make(map[core.ID][]string),
		static:     make(map[core.ID][]any),
		integrator: integrator,
		astCache:   astCache,
		evaluator:  evaluator,
	}, nil
}

// SetSensor overrides the visibility sensor every node built from this
// scenario uses (§6 `set_sensor`). Passing nil restores the default,
// unrestricted sensor.
func (s *Scenario) SetSensor(p sensor.Provider) {
	s.sens = p
}

// SetMap installs the lane-geometry provider and grows every already-added
// agent's lane-mode category from it (§6 `set_map`, mirroring
// original_source/scenario.py:41-46).
func (s *Scenario) SetMap(m agent.Map) {
	s.mp = m
	for _, id := range s.order {
		growLaneMode(s.agents[id], m)
	}
}

// AddAgent registers an agent, validating it and growing its lane-mode
// category against the current map if one is set (§6 `add_agent`,
// original_source/scenario.py:48-51). Re-adding an existing id replaces it.
func (s *Scenario) AddAgent(a *agent.Agent) error {
	if a == nil {
		return fmt.Errorf("scenario: nil agent")
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	if s.mp != nil {
		growLaneMode(a, s.mp)
	}
	if _, exists := s.agents[a.ID]; !exists {
		s.order = append(s.order, a.ID)
	}
	s.agents[a.ID] = a
	return nil
}

// SetInit assigns initial continuous regions, mode tuples, and (optionally)
// static data for every registered agent, in the order agents were added
// (§6 `set_init`). static may be nil, matching
// original_source/scenario.py:64-74's default-to-empty-list behavior; when
// provided it must have one entry per agent. Every argument is deep-copied
// so later mutation by the caller cannot corrupt scenario state.
func (s *Scenario) SetInit(inits []agent.Region, modes [][]string, static [][]any) error {
	n := len(s.order)
	if len(inits) != n {
		return fmt.Errorf("scenario: set_init: got %d init regions, want %d", len(inits), n)
	}
	if len(modes) != n {
		return fmt.Errorf("scenario: set_init: got %d init modes, want %d", len(modes), n)
	}
	if static != nil && len(static) != n {
		return fmt.Errorf("scenario: set_init: got %d static entries, want %d or 0", len(static), n)
	}
	for i, id := range s.order {
		region, err := core.DeepCopy(inits[i])
		if err != nil {
			return fmt.Errorf("scenario: set_init: agent %s: %w", id, err)
		}
		mode, err := core.DeepCopy(modes[i])
		if err != nil {
			return fmt.Errorf("scenario: set_init: agent %s: %w", id, err)
		}
		var st []any
		if static != nil {
			st, err = core.DeepCopy(static[i])
			if err != nil {
				return fmt.Errorf("scenario: set_init: agent %s: %w", id, err)
			}
		}
		s.initRegion[id] = region
		s.initMode[id] = mode
		s.static[id] = st
		s.agents[id].Init = region
		s.agents[id].InitMode = mode
		s.agents[id].Static = st
	}
	return nil
}
