package assert

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errContains(err error, substr string) bool {
	return err != nil && strings.Contains(err.Error(), substr)
}

func TestNewCELEvaluator(t *testing.T) {
	t.Run("Should create CEL evaluator successfully", func(t *testing.T) {
		evaluator, err := NewCELEvaluator()
		require.NoError(t, err)
		assert.NotNil(t, evaluator)
		assert.NotNil(t, evaluator.env)
		assert.Equal(t, uint64(1000), evaluator.costLimit)
	})
	t.Run("Should create CEL evaluator with custom cost limit", func(t *testing.T) {
		evaluator, err := NewCELEvaluator(WithCostLimit(500))
		require.NoError(t, err)
		assert.Equal(t, uint64(500), evaluator.costLimit)
	})
	t.Run("Should create CEL evaluator with Ristretto cache", func(t *testing.T) {
		evaluator, err := NewCELEvaluator()
		require.NoError(t, err)
		assert.NotNil(t, evaluator.programCache)
	})
}

func TestCELEvaluator_Evaluate(t *testing.T) {
	t.Run("Should evaluate a simple boolean expression", func(t *testing.T) {
		evaluator, err := NewCELEvaluator()
		require.NoError(t, err)
		data := map[string]any{"ego": map[string]any{"v": 1.0}}
		result, err := evaluator.Evaluate(context.Background(), "ego.v > 0", data)
		require.NoError(t, err)
		assert.True(t, result)
	})
	t.Run("Should handle false conditions", func(t *testing.T) {
		evaluator, err := NewCELEvaluator()
		require.NoError(t, err)
		data := map[string]any{"ego": map[string]any{"mode": "Normal"}}
		result, err := evaluator.Evaluate(context.Background(), `ego.mode == "SwitchLeft"`, data)
		require.NoError(t, err)
		assert.False(t, result)
	})
	t.Run("Should handle missing fields gracefully", func(t *testing.T) {
		evaluator, err := NewCELEvaluator()
		require.NoError(t, err)
		data := map[string]any{"ego": map[string]any{}}
		result, err := evaluator.Evaluate(context.Background(), "ego.v > 0", data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no such key")
		assert.False(t, result)
	})
	t.Run("Should respect context cancellation", func(t *testing.T) {
		evaluator, err := NewCELEvaluator()
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		data := map[string]any{"ego": map[string]any{"v": 1.0}}
		result, err := evaluator.Evaluate(ctx, "ego.v > 0", data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled) || errContains(err, "context"))
		assert.False(t, result)
	})
	t.Run("Should require a boolean result", func(t *testing.T) {
		evaluator, err := NewCELEvaluator()
		require.NoError(t, err)
		data := map[string]any{"ego": map[string]any{"mode": "Normal"}}
		result, err := evaluator.Evaluate(context.Background(), "ego.mode", data)
		require.Error(t, err)
		assert.True(t, errContains(err, "boolean"))
		assert.False(t, result)
	})
	t.Run("Should handle compilation errors", func(t *testing.T) {
		evaluator, err := NewCELEvaluator()
		require.NoError(t, err)
		data := map[string]any{"ego": map[string]any{}}
		result, err := evaluator.Evaluate(context.Background(), "ego.v ==", data)
		require.Error(t, err)
		assert.True(t, errContains(err, "compilation") || errContains(err, "parse"))
		assert.False(t, result)
	})
	t.Run("Should cache compiled programs across calls", func(t *testing.T) {
		evaluator, err := NewCELEvaluator(WithCacheSize(3))
		require.NoError(t, err)
		ctx := context.Background()
		data := map[string]any{"ego": map[string]any{"v": 1.0}}
		expr := "ego.v == 1.0"
		result1, err := evaluator.Evaluate(ctx, expr, data)
		require.NoError(t, err)
		assert.True(t, result1)
		result2, err := evaluator.Evaluate(ctx, expr, data)
		require.NoError(t, err)
		assert.True(t, result2)
	})
}

func TestCELEvaluator_ValidateExpression(t *testing.T) {
	t.Run("Should validate a correct expression", func(t *testing.T) {
		evaluator, err := NewCELEvaluator()
		require.NoError(t, err)
		assert.NoError(t, evaluator.ValidateExpression("ego.v > 0"))
	})
	t.Run("Should reject an invalid expression", func(t *testing.T) {
		evaluator, err := NewCELEvaluator()
		require.NoError(t, err)
		err = evaluator.ValidateExpression("ego.v ==")
		require.Error(t, err)
		assert.True(t, errContains(err, "invalid") || errContains(err, "compilation"))
	})
}

func TestCELEvaluator_ContextTimeout(t *testing.T) {
	t.Run("Should respect an already-expired context", func(t *testing.T) {
		evaluator, err := NewCELEvaluator()
		require.NoError(t, err)
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		data := map[string]any{"ego": map[string]any{"v": 1.0}}
		result, err := evaluator.Evaluate(ctx, "ego.v > 0", data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded) || errContains(err, "context"))
		assert.False(t, result)
	})
}
