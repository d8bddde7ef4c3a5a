package sensor_test

import (
	"testing"

	"github.com/compozy/verse-engine/engine/automaton"
	"github.com/compozy/verse-engine/engine/core"
	"github.com/compozy/verse-engine/engine/env"
	"github.com/compozy/verse-engine/engine/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testController() automaton.Controller {
	return &automaton.ControllerIR{
		StateDefs: []automaton.StateDef{{
			Name:             "VehicleState",
			ContinuousFields: []string{"x", "y", "v"},
			DiscreteFields:   []string{"mode"},
		}},
	}
}

func TestSensor_Sense(t *testing.T) {
	ego := core.ID("A")
	npc := core.ID("B")
	controllers := map[core.ID]automaton.Controller{ego: testController(), npc: testController()}
	joint := map[core.ID]sensor.AgentState{
		ego: {Vector: []float64{0, 0, 1}, Mode: []string{"Normal"}},
		npc: {Vector: []float64{10, 0, 0.5}, Mode: []string{"Normal"}},
	}
	s := sensor.New()

	t.Run("Should bind ego fields under the ego namespace", func(t *testing.T) {
		tmpl, disc, _, err := s.Sense(ego, joint, []core.ID{npc}, controllers, nil)
		require.NoError(t, err)
		var found bool
		for _, f := range tmpl.Fields {
			if f.Key == "ego.x" {
				found = true
			}
		}
		assert.True(t, found)
		modeVal, ok := disc.Get("ego.mode")
		require.True(t, ok)
		assert.Equal(t, "Normal", modeVal.Str)
	})

	t.Run("Should record the count of other agents in lengthDict", func(t *testing.T) {
		_, _, lengthDict, err := s.Sense(ego, joint, []core.ID{npc}, controllers, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, lengthDict["x"])
	})

	t.Run("Should error when the ego agent is missing from joint state", func(t *testing.T) {
		_, _, _, err := s.Sense(core.ID("missing"), joint, []core.ID{npc}, controllers, nil)
		assert.Error(t, err)
	})
}

func TestRebindPoint(t *testing.T) {
	t.Run("Should fill continuous bindings from a point vector snapshot", func(t *testing.T) {
		tmpl := &sensor.Template{Fields: []sensor.ContField{{Key: "ego.x", AgentID: "A", Index: 0}}}
		e, err := sensor.RebindPoint(tmpl, map[core.ID][]float64{"A": {3.5}})
		require.NoError(t, err)
		v, ok := e.Get("ego.x")
		require.True(t, ok)
		assert.Equal(t, 3.5, v.Num)
	})
}

func TestMerge(t *testing.T) {
	t.Run("Should overlay discrete bindings onto continuous ones", func(t *testing.T) {
		cont := env.New()
		cont.Set("ego.x", env.Float(1.0))
		disc := env.New()
		disc.Set("ego.mode", env.String("Normal"))
		merged := sensor.Merge(cont, disc)
		_, hasX := merged.Get("ego.x")
		_, hasMode := merged.Get("ego.mode")
		assert.True(t, hasX)
		assert.True(t, hasMode)
	})
}
