package automaton_test

import (
	"testing"

	"github.com/compozy/verse-engine/engine/automaton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerIR_ValidateModeTuple(t *testing.T) {
	ir := &automaton.ControllerIR{
		ModeDefs: []automaton.ModeDef{
			{Name: "VehicleMode", Values: []string{"Normal", "SwitchLeft"}},
			{Name: "TrackMode", Values: []string{"T0", "T1"}},
		},
	}
	t.Run("Should accept a tuple with declared values in order", func(t *testing.T) {
		require.NoError(t, ir.ValidateModeTuple([]string{"Normal", "T1"}))
	})
	t.Run("Should reject a tuple of the wrong length", func(t *testing.T) {
		assert.Error(t, ir.ValidateModeTuple([]string{"Normal"}))
	})
	t.Run("Should reject an undeclared value", func(t *testing.T) {
		assert.Error(t, ir.ValidateModeTuple([]string{"Reverse", "T1"}))
	})
}

func TestControllerIR_GrowModeCategory(t *testing.T) {
	t.Run("Should append new lane identifiers without duplicating existing ones", func(t *testing.T) {
		ir := &automaton.ControllerIR{
			ModeDefs: []automaton.ModeDef{{Name: "LaneMode", Values: []string{"T0"}}},
		}
		ir.GrowModeCategory("LaneMode", []string{"T0", "T1", "T2"})
		assert.Equal(t, []string{"T0", "T1", "T2"}, ir.ModeDefs[0].Values)
	})
	t.Run("Should be a no-op for an unknown category", func(t *testing.T) {
		ir := &automaton.ControllerIR{
			ModeDefs: []automaton.ModeDef{{Name: "LaneMode", Values: []string{"T0"}}},
		}
		ir.GrowModeCategory("Missing", []string{"x"})
		assert.Len(t, ir.ModeDefs, 1)
	})
}

func TestModeDef_HasValue(t *testing.T) {
	md := automaton.ModeDef{Name: "VehicleMode", Values: []string{"Normal"}}
	t.Run("Should report true for a declared value", func(t *testing.T) {
		assert.True(t, md.HasValue("Normal"))
	})
	t.Run("Should report false for an undeclared value", func(t *testing.T) {
		assert.False(t, md.HasValue("Reverse"))
	})
}
