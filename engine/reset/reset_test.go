package reset_test

import (
	"testing"

	"github.com/compozy/verse-engine/engine/agent"
	"github.com/compozy/verse-engine/engine/automaton"
	"github.com/compozy/verse-engine/engine/env"
	"github.com/compozy/verse-engine/engine/guard"
	"github.com/compozy/verse-engine/engine/reset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vehicleIR() *automaton.ControllerIR {
	return &automaton.ControllerIR{
		ModeDefs: []automaton.ModeDef{
			{Name: "mode", Values: []string{"Normal", "SwitchLeft", "SwitchRight"}},
			{Name: "track", Values: []string{"T0", "T1", "T2"}},
		},
		StateDefs: []automaton.StateDef{
			{Name: "State", ContinuousFields: []string{"x", "y", "v"}},
		},
	}
}

func mustParse(t *testing.T, src string) *guard.Node {
	t.Helper()
	node, err := guard.Parse(src)
	require.NoError(t, err)
	return node
}

func TestApply_ContinuousAndDiscreteReset(t *testing.T) {
	ir := vehicleIR()
	e := env.New()
	e.Set("ego.y", env.Float(-0.5))
	region := agent.NewPointRegion([]float64{0, -0.5, 1})
	fired := []reset.FiredPath{
		{Path: automaton.ModePath{Var: "ego.y"}, Val: mustParse(t, "ego.y + 3")},
		{Path: automaton.ModePath{Var: "mode", IsDiscrete: true}, Val: mustParse(t, "SwitchLeft")},
	}
	out, err := reset.Apply(ir, fired, []string{"Normal", "T1"}, region, e, false)
	require.NoError(t, err)
	t.Run("Should shift the targeted continuous dimension", func(t *testing.T) {
		assert.InDelta(t, 2.5, out.Successor.Low[1], 1e-9)
		assert.InDelta(t, 2.5, out.Successor.High[1], 1e-9)
	})
	t.Run("Should leave untargeted dimensions unchanged", func(t *testing.T) {
		assert.InDelta(t, 0, out.Successor.Low[0], 1e-9)
		assert.InDelta(t, 1, out.Successor.Low[2], 1e-9)
	})
	t.Run("Should assign the single mode and inherit the untouched category", func(t *testing.T) {
		require.Len(t, out.ModeTuples, 1)
		assert.Equal(t, []string{"SwitchLeft", "T1"}, out.ModeTuples[0])
	})
}

func TestApply_CartesianExpansion(t *testing.T) {
	ir := vehicleIR()
	e := env.New()
	fired := []reset.FiredPath{
		{Path: automaton.ModePath{Var: "mode", IsDiscrete: true}, Val: mustParse(t, "[SwitchLeft, SwitchRight]")},
		{Path: automaton.ModePath{Var: "track", IsDiscrete: true}, Val: mustParse(t, "[T0, T2]")},
	}
	region := agent.NewPointRegion([]float64{0, 0, 1})
	out, err := reset.Apply(ir, fired, []string{"Normal", "T1"}, region, e, false)
	require.NoError(t, err)
	t.Run("Should emit exactly the product of the two candidate sets", func(t *testing.T) {
		assert.Len(t, out.ModeTuples, 4)
	})
	t.Run("Should cover every combination", func(t *testing.T) {
		seen := map[string]bool{}
		for _, tup := range out.ModeTuples {
			seen[tup[0]+"/"+tup[1]] = true
		}
		assert.True(t, seen["SwitchLeft/T0"])
		assert.True(t, seen["SwitchLeft/T2"])
		assert.True(t, seen["SwitchRight/T0"])
		assert.True(t, seen["SwitchRight/T2"])
	})
}

func TestApply_NoSuccessorSentinel(t *testing.T) {
	ir := vehicleIR()
	e := env.New()
	e.Set("ego.y", env.Float(0))
	region := agent.NewPointRegion([]float64{0, 0, 1})
	fired := []reset.FiredPath{
		{Path: automaton.ModePath{Var: "ego.y"}, Val: mustParse(t, "ego.y + 1")},
		{Path: automaton.ModePath{Var: "mode", IsDiscrete: true}, Val: mustParse(t, "[]")},
	}
	out, err := reset.Apply(ir, fired, []string{"Normal", "T1"}, region, e, false)
	require.NoError(t, err)
	t.Run("Should report no successor mode", func(t *testing.T) {
		assert.True(t, out.NoSuccessor)
		assert.Empty(t, out.ModeTuples)
	})
	t.Run("Should still preserve the continuous reset", func(t *testing.T) {
		assert.InDelta(t, 1, out.Successor.Low[1], 1e-9)
	})
}

func TestApply_VerificationInterval(t *testing.T) {
	ir := vehicleIR()
	e := env.New()
	e.Set("ego.y", env.Interval(-0.5, 0.5))
	region := agent.Region{Low: []float64{0, -0.5, 1}, High: []float64{0.01, 0.5, 1}}
	fired := []reset.FiredPath{
		{Path: automaton.ModePath{Var: "ego.y"}, Val: mustParse(t, "ego.y + 3")},
	}
	out, err := reset.Apply(ir, fired, []string{"Normal", "T1"}, region, e, true)
	require.NoError(t, err)
	t.Run("Should shift the interval componentwise", func(t *testing.T) {
		assert.InDelta(t, 2.5, out.Successor.Low[1], 1e-9)
		assert.InDelta(t, 3.5, out.Successor.High[1], 1e-9)
	})
}

func TestApply_UndeclaredTargetIsAnError(t *testing.T) {
	ir := vehicleIR()
	e := env.New()
	region := agent.NewPointRegion([]float64{0, 0, 1})
	fired := []reset.FiredPath{
		{Path: automaton.ModePath{Var: "lane", IsDiscrete: true}, Val: mustParse(t, "T0")},
	}
	_, err := reset.Apply(ir, fired, []string{"Normal", "T1"}, region, e, false)
	assert.Error(t, err)
}
