// Package assert evaluates the Assert component of a controller (§3, §4.4
// step 2, §4.5, §7): a list of preconditions that, if all true, require a
// condition to also hold, or the assert fires. Assert expressions are
// scalar boolean expressions over the packed environment, the same shape
// the teacher's CEL evaluator (engine/task/cel_evaluator.go) was built for,
// so simulation asserts (Check) are evaluated with CEL. CEL has no interval
// arithmetic, so verification asserts (CheckInterval) are parsed and
// evaluated with engine/guard's AST and interval evaluator instead.
package assert

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

const defaultCostLimit = 1000

// defaultCacheSize mirrors pkg/config.AssertConfig's default ProgramCache,
// the max cost (one unit per cached program) the Ristretto cache admits.
const defaultCacheSize = int64(1 << 20)

// Option configures a CELEvaluator at construction time.
type Option func(*celOptions)

type celOptions struct {
	costLimit uint64
	cacheSize int64
}

// WithCostLimit caps the runtime cost CEL will spend evaluating a single
// expression before aborting (protects against pathological pre/cond
// expressions written by a live-edited controller).
func WithCostLimit(limit uint64) Option {
	return func(o *celOptions) { o.costLimit = limit }
}

// WithCacheSize sets the max cost (roughly, item count) of the compiled
// program cache.
func WithCacheSize(size int64) Option {
	return func(o *celOptions) { o.cacheSize = size }
}

// CELEvaluator compiles and evaluates Assert pre/cond expressions against a
// map[string]any environment, caching compiled programs by source text.
type CELEvaluator struct {
	env          *cel.Env
	costLimit    uint64
	programCache *ristretto.Cache[string, cel.Program]
}

// NewCELEvaluator builds a CELEvaluator with "ego", "others", and "map" as
// dynamically-typed top-level variables, matching the dotted field access
// (ego.x, others.v, map.speed_limit) Assert expressions use.
func NewCELEvaluator(opts ...Option) (*CELEvaluator, error) {
	cfg := celOptions{costLimit: defaultCostLimit, cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	env, err := cel.NewEnv(
		cel.Variable("ego", cel.DynType),
		cel.Variable("others", cel.DynType),
		cel.Variable("map", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("assert: failed to create CEL environment: %w", err)
	}
	numCounters := cfg.cacheSize * 10
	if numCounters < 100 {
		numCounters = 100
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, cel.Program]{
		NumCounters: numCounters,
		MaxCost:     cfg.cacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("assert: failed to create program cache: %w", err)
	}
	return &CELEvaluator{env: env, costLimit: cfg.costLimit, programCache: cache}, nil
}

// ValidateExpression compiles expr as a CEL expression and discards the
// program, reporting a malformed Assert expression as an error. Guard and
// reset expressions use engine/guard's grammar and are not checked here.
func (c *CELEvaluator) ValidateExpression(expr string) error {
	_, err := c.compile(expr)
	if err != nil {
		return fmt.Errorf("assert: invalid expression %q: %w", expr, err)
	}
	return nil
}

// Evaluate compiles (or reuses a cached compilation of) expr and evaluates
// it against data, requiring a boolean result.
func (c *CELEvaluator) Evaluate(ctx context.Context, expr string, data map[string]any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("assert: context error: %w", err)
	}
	prg, err := c.program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.ContextEval(ctx, data)
	if err != nil {
		if strings.Contains(err.Error(), "cost limit") {
			return false, fmt.Errorf("assert: expression %q exceeded cost limit: %w", expr, err)
		}
		return false, fmt.Errorf("assert: evaluation of %q failed: %w", expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok || out.Type() != types.BoolType {
		return false, fmt.Errorf("assert: expression %q must evaluate to a boolean, got %v", expr, out.Type())
	}
	return b, nil
}

func (c *CELEvaluator) program(expr string) (cel.Program, error) {
	if cached, ok := c.programCache.Get(expr); ok {
		return cached, nil
	}
	prg, err := c.compile(expr)
	if err != nil {
		return nil, err
	}
	c.programCache.Set(expr, prg, 1)
	c.programCache.Wait()
	return prg, nil
}

func (c *CELEvaluator) compile(expr string) (cel.Program, error) {
	ast, iss := c.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", iss.Err())
	}
	prg, err := c.env.Program(ast, cel.CostLimit(c.costLimit), cel.EvalOptions(cel.OptTrackCost))
	if err != nil {
		return nil, fmt.Errorf("program construction error: %w", err)
	}
	return prg, nil
}
