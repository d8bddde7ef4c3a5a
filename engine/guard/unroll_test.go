package guard_test

import (
	"testing"

	"github.com/compozy/verse-engine/engine/env"
	"github.com/compozy/verse-engine/engine/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnyAll(t *testing.T) {
	t.Run("Should rewrite forall into a conjunction over indexed names", func(t *testing.T) {
		node, err := guard.Parse("forall o in others: o.x - ego.x < 5")
		require.NoError(t, err)
		out, updaters := guard.ParseAnyAll(node, 2)
		assert.Equal(t, "&&", out.Op)
		upd, ok := updaters["o"]
		require.True(t, ok)
		assert.Equal(t, "x", upd.Field)
		assert.Equal(t, []string{"others.x.0", "others.x.1"}, upd.Names)
	})
	t.Run("Should rewrite exists into a disjunction", func(t *testing.T) {
		node, err := guard.Parse("exists o in others: o.x > 10")
		require.NoError(t, err)
		out, _ := guard.ParseAnyAll(node, 2)
		assert.Equal(t, "||", out.Op)
	})
	t.Run("Should reduce forall over zero others to true", func(t *testing.T) {
		node, err := guard.Parse("forall o in others: o.x > 10")
		require.NoError(t, err)
		out, _ := guard.ParseAnyAll(node, 0)
		assert.Equal(t, guard.NodeLitBool, out.Kind)
		assert.True(t, out.Bool)
	})
	t.Run("Should reduce exists over zero others to false", func(t *testing.T) {
		node, err := guard.Parse("exists o in others: o.x > 10")
		require.NoError(t, err)
		out, _ := guard.ParseAnyAll(node, 0)
		assert.False(t, out.Bool)
	})
	t.Run("Should return an empty updater map for quantifier-free guards", func(t *testing.T) {
		node, err := guard.Parse("ego.x < 5")
		require.NoError(t, err)
		out, updaters := guard.ParseAnyAll(node, 3)
		assert.Same(t, node, out)
		assert.Empty(t, updaters)
	})
	t.Run("Should produce a conjunction that evaluates using unrolled env keys", func(t *testing.T) {
		node, err := guard.Parse("forall o in others: o.x < ego.x")
		require.NoError(t, err)
		out, _ := guard.ParseAnyAll(node, 2)
		e := env.New()
		e.Set("ego.x", env.Float(10))
		e.Set("others.x.0", env.Float(1))
		e.Set("others.x.1", env.Float(2))
		v, err := guard.EvalPoint(out, e)
		require.NoError(t, err)
		assert.Equal(t, float64(1), v.Num)
	})
}
