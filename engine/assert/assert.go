package assert

import (
	"context"
	"fmt"
	"strings"

	"github.com/compozy/verse-engine/engine/automaton"
	"github.com/compozy/verse-engine/engine/env"
	"github.com/compozy/verse-engine/engine/guard"
)

// Hit records one fired assert: the declared label, or a positional
// fallback when none was given (§4.4 step 2: "label or '<assert i>'").
type Hit struct {
	Label string
}

// ToCELData converts a packed Env into the nested map[string]any shape a
// CELEvaluator expects: "ego.x" -> {"ego": {"x": ...}}. Interval-valued
// bindings have no CEL representation and are skipped; verification assert
// checking uses CheckInterval instead.
func ToCELData(e *env.Env) map[string]any {
	root := make(map[string]any)
	for k, v := range e.Vars {
		setDotted(root, k, celValue(v))
	}
	return root
}

func celValue(v env.Value) any {
	switch v.Kind {
	case env.KindFloat:
		return v.Num
	case env.KindString:
		return v.Str
	default:
		return nil
	}
}

func setDotted(root map[string]any, dotted string, value any) {
	if value == nil {
		return
	}
	parts := strings.Split(dotted, ".")
	cur := root
	for i, p := range parts {
		if i == len(parts)-1 {
			cur[p] = value
			return
		}
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
}

// Check implements the simulation half of §4.4 step 2: asserts are
// evaluated in declared order over e's point bindings via evaluator. The
// first assert whose every Pre holds and whose Cond fails is returned;
// callers must stop transition scanning for the node the moment Check
// returns a non-nil Hit (§7/§8 "assert precedence is absolute").
func Check(ctx context.Context, evaluator *CELEvaluator, asserts []automaton.Assert, e *env.Env) (*Hit, error) {
	if len(asserts) == 0 {
		return nil, nil
	}
	data := ToCELData(e)
	for i, a := range asserts {
		preHolds, err := allHold(ctx, evaluator, a.Pre, data)
		if err != nil {
			return nil, err
		}
		if !preHolds {
			continue
		}
		ok, err := evaluator.Evaluate(ctx, a.Cond, data)
		if err != nil {
			return nil, fmt.Errorf("assert: condition %q: %w", a.Cond, err)
		}
		if !ok {
			return &Hit{Label: label(a, i)}, nil
		}
	}
	return nil, nil
}

func allHold(ctx context.Context, evaluator *CELEvaluator, exprs []string, data map[string]any) (bool, error) {
	for _, pre := range exprs {
		ok, err := evaluator.Evaluate(ctx, pre, data)
		if err != nil {
			return false, fmt.Errorf("assert: precondition %q: %w", pre, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// CheckInterval implements the verification half of assert handling (§7:
// "verification treats assert violations the same way with an
// interval-valid precondition as 'fired'"). CEL has no interval semantics,
// so Pre/Cond are parsed as engine/guard ASTs and evaluated over interval
// bindings instead: an assert fires when every Pre is TriTrue (true at
// every point in the box) and Cond is TriFalse (false at every point in the
// box). TriUnknown never fires an assert — reporting a violation the box
// does not guarantee would violate verification soundness (§8).
func CheckInterval(asserts []automaton.Assert, e *env.Env) (*Hit, error) {
	if len(asserts) == 0 {
		return nil, nil
	}
	for i, a := range asserts {
		preHolds, err := allHoldInterval(a.Pre, e)
		if err != nil {
			return nil, err
		}
		if !preHolds {
			continue
		}
		node, err := guard.Parse(a.Cond)
		if err != nil {
			return nil, fmt.Errorf("assert: condition %q: %w", a.Cond, err)
		}
		tri, err := guard.EvalInterval(node, e)
		if err != nil {
			return nil, fmt.Errorf("assert: condition %q: %w", a.Cond, err)
		}
		if tri == guard.TriFalse {
			return &Hit{Label: label(a, i)}, nil
		}
	}
	return nil, nil
}

func allHoldInterval(exprs []string, e *env.Env) (bool, error) {
	for _, pre := range exprs {
		node, err := guard.Parse(pre)
		if err != nil {
			return false, fmt.Errorf("assert: precondition %q: %w", pre, err)
		}
		tri, err := guard.EvalInterval(node, e)
		if err != nil {
			return false, fmt.Errorf("assert: precondition %q: %w", pre, err)
		}
		if tri != guard.TriTrue {
			return false, nil
		}
	}
	return true, nil
}

func label(a automaton.Assert, i int) string {
	if a.Label != "" {
		return a.Label
	}
	return fmt.Sprintf("<assert %d>", i)
}
