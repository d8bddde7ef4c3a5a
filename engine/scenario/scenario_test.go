package scenario_test

import (
	"context"
	"testing"

	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/automaton"
	"github.com/compozy/verse-engine/engine/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// straightLineIntegrator advances every agent along a fixed step, never
// crossing a mode guard, producing deterministic fixed-length traces.
type straightLineIntegrator struct {
	points int
}

func (i *straightLineIntegrator) Advance(
	_ context.Context, _ *agent.Agent, init agent.Region, _ []string, _ []any, horizon, step float64,
) ([][]float64, error) {
	var rows [][]float64
	for k := 0; k < i.points; k++ {
		t := float64(k) * step
		if t > horizon {
			break
		}
		row := []float64{t}
		for d := range init.Low {
			row = append(row, init.Low[d]+t)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (i *straightLineIntegrator) AdvanceReach(
	_ context.Context, _ *agent.Agent, init agent.Region, _ []string, _ []any, horizon, step float64,
) ([][]float64, error) {
	var rows [][]float64
	for k := 0; k < i.points; k++ {
		t := float64(k) * step
		if t > horizon {
			break
		}
		low, high := []float64{t}, []float64{t}
		for d := range init.Low {
			low = append(low, init.Low[d]+t)
			high = append(high, init.High[d]+t)
		}
		rows = append(rows, low, high)
	}
	return rows, nil
}

func laneController() *automaton.ControllerIR {
	return &automaton.ControllerIR{
		ModeDefs:  []automaton.ModeDef{{Name: "LaneMode", Values: []string{"Lane0"}}},
		StateDefs: []automaton.StateDef{{Name: "State", ContinuousFields: []string{"x"}}},
	}
}

type fakeMap struct{ lanes map[string]any }

func (m *fakeMap) LaneDict() map[string]any  { return m.lanes }
func (m *fakeMap) Query(string) (any, bool)  { return nil, false }

func TestScenarioConfiguration(t *testing.T) {
	t.Run("Should reject set_init with a mismatched agent count", func(t *testing.T) {
		s, err := scenario.New(&straightLineIntegrator{points: 3}, nil)
		require.NoError(t, err)
		require.NoError(t, s.AddAgent(&agent.Agent{ID: "a1", Controller: laneController()}))
		err = s.SetInit([]agent.Region{agent.NewPointRegion([]float64{0})}, [][]string{{"Lane0"}, {"Lane0"}}, nil)
		assert.Error(t, err)
	})

	t.Run("Should deep copy init data so later caller mutation cannot corrupt state", func(t *testing.T) {
		s, err := scenario.New(&straightLineIntegrator{points: 3}, nil)
		require.NoError(t, err)
		require.NoError(t, s.AddAgent(&agent.Agent{ID: "a1", Controller: laneController()}))
		region := agent.NewPointRegion([]float64{1})
		mode := []string{"Lane0"}
		require.NoError(t, s.SetInit([]agent.Region{region}, [][]string{mode}, nil))
		region.Low[0] = 99
		mode[0] = "mutated"
		tree, err := s.Simulate(context.Background(), 2, 1)
		require.NoError(t, err)
		require.Equal(t, []string{"Lane0"}, tree.Root.Node.Mode["a1"])
		require.Equal(t, 1.0, tree.Root.Node.Trace["a1"][0][1])
	})

	t.Run("Should grow a LaneMode category from the map's lane dict on AddAgent and SetMap", func(t *testing.T) {
		s, err := scenario.New(&straightLineIntegrator{points: 1}, nil)
		require.NoError(t, err)
		a := &agent.Agent{ID: "a1", Controller: laneController()}
		require.NoError(t, s.AddAgent(a))
		s.SetMap(&fakeMap{lanes: map[string]any{"Lane0": nil, "Lane1": nil, "Lane2": nil}})
		ir := a.Controller.(*automaton.ControllerIR)
		assert.ElementsMatch(t, []string{"Lane0", "Lane1", "Lane2"}, ir.ModeDefs[0].Values)
	})
}

func TestScenarioSimulate(t *testing.T) {
	t.Run("Should produce a single-node tree when no guard ever fires", func(t *testing.T) {
		s, err := scenario.New(&straightLineIntegrator{points: 3}, nil)
		require.NoError(t, err)
		require.NoError(t, s.AddAgent(&agent.Agent{ID: "a1", Controller: laneController(), InitMode: []string{"Lane0"}}))
		require.NoError(t, s.SetInit(
			[]agent.Region{agent.NewPointRegion([]float64{0})},
			[][]string{{"Lane0"}},
			nil,
		))
		tree, err := s.Simulate(context.Background(), 2, 1)
		require.NoError(t, err)
		assert.Empty(t, tree.Root.Children)
		assert.Empty(t, tree.Root.AssertHits)
	})

	t.Run("Should run SimulateMulti the requested number of times", func(t *testing.T) {
		s, err := scenario.New(&straightLineIntegrator{points: 2}, nil)
		require.NoError(t, err)
		require.NoError(t, s.AddAgent(&agent.Agent{ID: "a1", Controller: laneController(), InitMode: []string{"Lane0"}}))
		require.NoError(t, s.SetInit([]agent.Region{agent.NewPointRegion([]float64{0})}, [][]string{{"Lane0"}}, nil))
		trees, err := s.SimulateMulti(context.Background(), 3, 1, 1)
		require.NoError(t, err)
		assert.Len(t, trees, 3)
	})
}

func TestScenarioVerify(t *testing.T) {
	t.Run("Should produce a single-node reach-tube tree when no guard ever fires", func(t *testing.T) {
		s, err := scenario.New(&straightLineIntegrator{points: 3}, nil)
		require.NoError(t, err)
		require.NoError(t, s.AddAgent(&agent.Agent{ID: "a1", Controller: laneController(), InitMode: []string{"Lane0"}}))
		require.NoError(t, s.SetInit(
			[]agent.Region{{Low: []float64{0}, High: []float64{0.5}}},
			[][]string{{"Lane0"}},
			nil,
		))
		tree, err := s.Verify(context.Background(), 2, 1)
		require.NoError(t, err)
		assert.Empty(t, tree.Root.Children)
		require.Len(t, tree.Root.Node.Trace["a1"], 6)
	})
}

func TestScenarioRequiresConfiguration(t *testing.T) {
	t.Run("Should error on Simulate with no agents registered", func(t *testing.T) {
		s, err := scenario.New(&straightLineIntegrator{points: 1}, nil)
		require.NoError(t, err)
		_, err = s.Simulate(context.Background(), 1, 1)
		assert.Error(t, err)
	})
}
