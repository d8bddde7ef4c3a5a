package guard

import (
	"fmt"
	"math"

	"github.com/compozy/verse-engine/engine/env"
)

// ivl is a closed numeric interval used internally by the hybrid/containment
// evaluator. A degenerate interval (Low == High) represents a scalar.
type ivl struct{ Low, High float64 }

// EvalInterval evaluates node against an environment whose continuous
// bindings are intervals (verification), returning a three-valued result.
// It backs both hybrid pruning (§4.2.3, "false iff cannot be satisfied for
// any point in the box") and continuous containment (§4.2.4): hybrid
// pruning is `result != TriFalse`; containment's `contained` is
// `result == TriTrue`.
func EvalInterval(node *Node, e *env.Env) (Tri, error) {
	switch node.Kind {
	case NodeLitBool:
		if node.Bool {
			return TriTrue, nil
		}
		return TriFalse, nil
	case NodeUnary:
		if node.Op == "!" {
			inner, err := EvalInterval(node.Left, e)
			if err != nil {
				return TriUnknown, err
			}
			return triNot(inner), nil
		}
		return TriUnknown, fmt.Errorf("guard: unary operator %q is not a boolean context", node.Op)
	case NodeBinary:
		return evalIntervalBinary(node, e)
	default:
		return TriUnknown, fmt.Errorf("guard: node kind %v is not a boolean expression", node.Kind)
	}
}

func evalIntervalBinary(node *Node, e *env.Env) (Tri, error) {
	switch node.Op {
	case "&&":
		left, err := EvalInterval(node.Left, e)
		if err != nil {
			return TriUnknown, err
		}
		right, err := EvalInterval(node.Right, e)
		if err != nil {
			return TriUnknown, err
		}
		return triAnd(left, right), nil
	case "||":
		left, err := EvalInterval(node.Left, e)
		if err != nil {
			return TriUnknown, err
		}
		right, err := EvalInterval(node.Right, e)
		if err != nil {
			return TriUnknown, err
		}
		return triOr(left, right), nil
	case "==", "!=":
		// Discrete (enum/string) operands compare by value, as in EvalPoint.
		if l, ok := discreteOperand(node.Left, e, nil); ok {
			if r, ok := discreteOperand(node.Right, e, nil); ok {
				if (l == r) == (node.Op == "==") {
					return TriTrue, nil
				}
				return TriFalse, nil
			}
		}
	}
	left, err := evalIvlOperand(node.Left, e)
	if err != nil {
		return TriUnknown, err
	}
	right, err := evalIvlOperand(node.Right, e)
	if err != nil {
		return TriUnknown, err
	}
	return compareIvl(node.Op, left, right)
}

// EvalContained evaluates node's hybrid-pruning result and exposes
// containment (§4.2.4) explicitly at the call site: hit reports whether the
// box is still a candidate at all (`result != TriFalse`), and contained
// reports whether the guard holds for every point in the box
// (`result == TriTrue`) — the signal that the transition is unavoidable from
// here and no later index can add information.
func EvalContained(node *Node, e *env.Env) (hit, contained bool, err error) {
	tri, err := EvalInterval(node, e)
	if err != nil {
		return false, false, err
	}
	return tri != TriFalse, tri == TriTrue, nil
}

// EvalIntervalValue evaluates a non-boolean (arithmetic) expression against
// an interval environment, returning its bounds. Used by engine/reset to
// evaluate a continuous reset's Val expression under verification
// semantics, where unmodified operands may themselves be intervals.
func EvalIntervalValue(node *Node, e *env.Env) (low, high float64, err error) {
	v, err := evalIvlOperand(node, e)
	if err != nil {
		return 0, 0, err
	}
	return v.Low, v.High, nil
}

// evalIvlOperand evaluates a non-boolean (arithmetic/variable/literal)
// subexpression to an interval.
func evalIvlOperand(node *Node, e *env.Env) (ivl, error) {
	switch node.Kind {
	case NodeLitNum:
		return ivl{node.Num, node.Num}, nil
	case NodeVar:
		v, ok := e.Get(node.Path)
		if !ok {
			return ivl{}, fmt.Errorf("guard: unbound variable %q", node.Path)
		}
		low, high, err := v.Bounds()
		if err != nil {
			return ivl{}, err
		}
		return ivl{low, high}, nil
	case NodeUnary:
		if node.Op != "-" {
			return ivl{}, fmt.Errorf("guard: unary operator %q is not numeric", node.Op)
		}
		v, err := evalIvlOperand(node.Left, e)
		if err != nil {
			return ivl{}, err
		}
		return ivl{-v.High, -v.Low}, nil
	case NodeBinary:
		left, err := evalIvlOperand(node.Left, e)
		if err != nil {
			return ivl{}, err
		}
		right, err := evalIvlOperand(node.Right, e)
		if err != nil {
			return ivl{}, err
		}
		return arithIvl(node.Op, left, right)
	case NodeCall:
		return evalIvlCall(node, e)
	default:
		return ivl{}, fmt.Errorf("guard: node kind %v is not numeric", node.Kind)
	}
}

func arithIvl(op string, a, b ivl) (ivl, error) {
	switch op {
	case "+":
		return ivl{a.Low + b.Low, a.High + b.High}, nil
	case "-":
		return ivl{a.Low - b.High, a.High - b.Low}, nil
	case "*":
		products := []float64{a.Low * b.Low, a.Low * b.High, a.High * b.Low, a.High * b.High}
		return ivl{minOf(products), maxOf(products)}, nil
	case "/":
		if b.Low <= 0 && b.High >= 0 {
			return ivl{math.Inf(-1), math.Inf(1)}, nil
		}
		quotients := []float64{a.Low / b.Low, a.Low / b.High, a.High / b.Low, a.High / b.High}
		return ivl{minOf(quotients), maxOf(quotients)}, nil
	default:
		return ivl{}, fmt.Errorf("guard: unknown arithmetic operator %q", op)
	}
}

func evalIvlCall(node *Node, e *env.Env) (ivl, error) {
	if node.Func == "size" {
		v, err := evalSize(node, e)
		if err != nil {
			return ivl{}, err
		}
		return ivl{v.Num, v.Num}, nil
	}
	args := make([]ivl, len(node.Args))
	for i, a := range node.Args {
		v, err := evalIvlOperand(a, e)
		if err != nil {
			return ivl{}, err
		}
		args[i] = v
	}
	switch node.Func {
	case "abs":
		if args[0].Low >= 0 {
			return args[0], nil
		}
		if args[0].High <= 0 {
			return ivl{-args[0].High, -args[0].Low}, nil
		}
		return ivl{0, math.Max(-args[0].Low, args[0].High)}, nil
	case "min":
		return ivl{math.Min(args[0].Low, args[1].Low), math.Min(args[0].High, args[1].High)}, nil
	case "max":
		return ivl{math.Max(args[0].Low, args[1].Low), math.Max(args[0].High, args[1].High)}, nil
	default:
		return ivl{}, fmt.Errorf("guard: function %q is not implemented", node.Func)
	}
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Max(m, x)
	}
	return m
}

// compareIvl evaluates a comparison operator over two intervals
// conservatively: True/False only when every point pair agrees, Unknown
// otherwise.
func compareIvl(op string, a, b ivl) (Tri, error) {
	switch op {
	case "<":
		if a.High < b.Low {
			return TriTrue, nil
		}
		if a.Low >= b.High {
			return TriFalse, nil
		}
		return TriUnknown, nil
	case "<=":
		if a.High <= b.Low {
			return TriTrue, nil
		}
		if a.Low > b.High {
			return TriFalse, nil
		}
		return TriUnknown, nil
	case ">":
		if a.Low > b.High {
			return TriTrue, nil
		}
		if a.High <= b.Low {
			return TriFalse, nil
		}
		return TriUnknown, nil
	case ">=":
		if a.Low >= b.High {
			return TriTrue, nil
		}
		if a.High < b.Low {
			return TriFalse, nil
		}
		return TriUnknown, nil
	case "==":
		if a.Low == a.High && b.Low == b.High && a.Low == b.Low {
			return TriTrue, nil
		}
		if a.High < b.Low || b.High < a.Low {
			return TriFalse, nil
		}
		return TriUnknown, nil
	case "!=":
		eq, err := compareIvl("==", a, b)
		if err != nil {
			return TriUnknown, err
		}
		return triNot(eq), nil
	default:
		return TriUnknown, fmt.Errorf("guard: unknown comparison operator %q", op)
	}
}
