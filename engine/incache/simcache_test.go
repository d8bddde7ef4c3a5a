package incache_test

import (
	"testing"

	"github.com/compozy/verse-engine/engine/core"
	"github.com/compozy/verse-engine/engine/incache"
	"github.com/stretchr/testify/assert"
)

func TestSimSegmentCache(t *testing.T) {
	t.Run("Should miss on an empty cache", func(t *testing.T) {
		c := incache.NewSimSegmentCache(0.01)
		_, ok := c.CheckHit("a1", []string{"Normal"}, []float64{0, 1})
		assert.False(t, ok)
	})

	t.Run("Should hit when the query falls within every dimension's epsilon band", func(t *testing.T) {
		c := incache.NewSimSegmentCache(0.5)
		seg := incache.CachedSegment{Trace: [][]float64{{0, 0, 1}}, RunNum: 7, NodeID: core.ID("n1")}
		c.AddSegment("a1", []string{"Normal"}, []float64{0, 1}, seg)
		got, ok := c.CheckHit("a1", []string{"Normal"}, []float64{0.2, 0.9})
		assert.True(t, ok)
		assert.Equal(t, 7, got.RunNum)
	})

	t.Run("Should miss when any dimension falls outside the epsilon band", func(t *testing.T) {
		c := incache.NewSimSegmentCache(0.1)
		seg := incache.CachedSegment{RunNum: 1}
		c.AddSegment("a1", []string{"Normal"}, []float64{0, 1}, seg)
		_, ok := c.CheckHit("a1", []string{"Normal"}, []float64{0, 5})
		assert.False(t, ok)
	})

	t.Run("Should miss for a different mode tuple at the same init", func(t *testing.T) {
		c := incache.NewSimSegmentCache(0.5)
		c.AddSegment("a1", []string{"Normal"}, []float64{0, 1}, incache.CachedSegment{RunNum: 1})
		_, ok := c.CheckHit("a1", []string{"SwitchLeft"}, []float64{0, 1})
		assert.False(t, ok)
	})

	t.Run("Should report cached inits down to the requested depth", func(t *testing.T) {
		c := incache.NewSimSegmentCache(0.5)
		c.AddSegment("a1", []string{"Normal"}, []float64{0, 1}, incache.CachedSegment{RunNum: 3, NodeID: core.ID("n3")})
		inits := c.CachedInits(1)
		require := assert.New(t)
		require.Len(inits, 1)
		require.Equal(core.ID("a1"), inits[0].Agent)
		require.Equal([]string{"Normal"}, inits[0].Mode)
		require.InDeltaSlice([]float64{0, 1}, inits[0].Point, 1e-9)
		require.Equal(3, inits[0].RunNum)
	})
}
