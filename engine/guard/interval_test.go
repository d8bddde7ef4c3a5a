package guard_test

import (
	"testing"

	"github.com/compozy/verse-engine/engine/env"
	"github.com/compozy/verse-engine/engine/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalInterval_Comparison(t *testing.T) {
	e := env.New()
	e.Set("others.x.0", env.Interval(8, 12))
	e.Set("ego.x", env.Interval(0, 0.01))
	node, err := guard.Parse("others.x.0 - ego.x < 5")
	require.NoError(t, err)
	t.Run("Should report TriFalse when no point in the box can satisfy the guard", func(t *testing.T) {
		tri, err := guard.EvalInterval(node, e)
		require.NoError(t, err)
		assert.Equal(t, guard.TriFalse, tri)
	})
	t.Run("Should report TriTrue when every point in the box satisfies the guard", func(t *testing.T) {
		e2 := env.New()
		e2.Set("others.x.0", env.Interval(1, 2))
		e2.Set("ego.x", env.Interval(0, 0.01))
		tri, err := guard.EvalInterval(node, e2)
		require.NoError(t, err)
		assert.Equal(t, guard.TriTrue, tri)
	})
	t.Run("Should report TriUnknown at a straddling boundary", func(t *testing.T) {
		e3 := env.New()
		e3.Set("others.x.0", env.Interval(3, 7))
		e3.Set("ego.x", env.Interval(0, 0.01))
		tri, err := guard.EvalInterval(node, e3)
		require.NoError(t, err)
		assert.Equal(t, guard.TriUnknown, tri)
	})
}

func TestEvalContained(t *testing.T) {
	node, err := guard.Parse("ego.x >= 10")
	require.NoError(t, err)
	t.Run("Should report hit false and contained false when the box is entirely outside the guard", func(t *testing.T) {
		e := env.New()
		e.Set("ego.x", env.Interval(8, 9))
		hit, contained, err := guard.EvalContained(node, e)
		require.NoError(t, err)
		assert.False(t, hit)
		assert.False(t, contained)
	})
	t.Run("Should report hit true and contained false at a straddling boundary", func(t *testing.T) {
		e := env.New()
		e.Set("ego.x", env.Interval(9, 12))
		hit, contained, err := guard.EvalContained(node, e)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.False(t, contained)
	})
	t.Run("Should report hit true and contained true when the box is entirely inside the guard", func(t *testing.T) {
		e := env.New()
		e.Set("ego.x", env.Interval(11, 13))
		hit, contained, err := guard.EvalContained(node, e)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.True(t, contained)
	})
}

func TestEvalInterval_LogicalConnectives(t *testing.T) {
	e := env.New()
	e.Set("ego.x", env.Interval(0, 10))
	trueNode, _ := guard.Parse("ego.x >= 0")
	falseNode, _ := guard.Parse("ego.x < 0")
	t.Run("Should AND TriFalse with anything to TriFalse", func(t *testing.T) {
		node := &guard.Node{Kind: guard.NodeBinary, Op: "&&", Left: trueNode, Right: falseNode}
		tri, err := guard.EvalInterval(node, e)
		require.NoError(t, err)
		assert.Equal(t, guard.TriFalse, tri)
	})
	t.Run("Should OR TriTrue with anything to TriTrue", func(t *testing.T) {
		node := &guard.Node{Kind: guard.NodeBinary, Op: "||", Left: trueNode, Right: falseNode}
		tri, err := guard.EvalInterval(node, e)
		require.NoError(t, err)
		assert.Equal(t, guard.TriTrue, tri)
	})
}

func TestEvalInterval_Abs(t *testing.T) {
	e := env.New()
	e.Set("ego.v", env.Interval(-3, 2))
	node, err := guard.Parse("abs(ego.v) <= 3")
	require.NoError(t, err)
	t.Run("Should widen abs() across a sign-straddling interval", func(t *testing.T) {
		tri, err := guard.EvalInterval(node, e)
		require.NoError(t, err)
		assert.Equal(t, guard.TriTrue, tri)
	})
}
