package env_test

import (
	"testing"

	"github.com/compozy/verse-engine/engine/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Bounds(t *testing.T) {
	t.Run("Should treat a float as a degenerate interval", func(t *testing.T) {
		low, high, err := env.Float(3.0).Bounds()
		require.NoError(t, err)
		assert.Equal(t, 3.0, low)
		assert.Equal(t, 3.0, high)
	})
	t.Run("Should return the stored bounds for an interval", func(t *testing.T) {
		low, high, err := env.Interval(1.0, 2.0).Bounds()
		require.NoError(t, err)
		assert.Equal(t, 1.0, low)
		assert.Equal(t, 2.0, high)
	})
	t.Run("Should error for a string value", func(t *testing.T) {
		_, _, err := env.String("Normal").Bounds()
		assert.Error(t, err)
	})
}

func TestEnv_CloneIsIndependent(t *testing.T) {
	t.Run("Should not let mutation of the clone affect the original", func(t *testing.T) {
		e := env.New()
		e.Set("ego.x", env.Float(1.0))
		clone := e.Clone()
		clone.Set("ego.x", env.Float(2.0))
		v, _ := e.Get("ego.x")
		assert.Equal(t, 1.0, v.Num)
	})
}

func TestOthersField(t *testing.T) {
	t.Run("Should build a stable indexed key", func(t *testing.T) {
		assert.Equal(t, "others.v.2", env.OthersField("v", 2))
	})
}
