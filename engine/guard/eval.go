package guard

import (
	"fmt"
	"math"

	"github.com/compozy/verse-engine/engine/env"
)

// Tri is three-valued logic used by discrete and hybrid pruning: True/False
// are definite, Unknown means "cannot be proven either way from the
// available information" and must never be treated as False by a pruning
// caller (§4.2: "conservative: no false negatives").
type Tri int

const (
	TriFalse Tri = iota
	TriTrue
	TriUnknown
)

func triAnd(a, b Tri) Tri {
	if a == TriFalse || b == TriFalse {
		return TriFalse
	}
	if a == TriTrue && b == TriTrue {
		return TriTrue
	}
	return TriUnknown
}

func triOr(a, b Tri) Tri {
	if a == TriTrue || b == TriTrue {
		return TriTrue
	}
	if a == TriFalse && b == TriFalse {
		return TriFalse
	}
	return TriUnknown
}

func triNot(a Tri) Tri {
	switch a {
	case TriTrue:
		return TriFalse
	case TriFalse:
		return TriTrue
	default:
		return TriUnknown
	}
}

// EvalPoint evaluates node with every variable bound to a scalar (simulation
// semantics, §4.2 entry point 5). Returns an error if a referenced variable
// is unbound or an operator is applied to mismatched types.
func EvalPoint(node *Node, e *env.Env) (env.Value, error) {
	switch node.Kind {
	case NodeLitNum:
		return env.Float(node.Num), nil
	case NodeLitStr:
		return env.String(node.Str), nil
	case NodeLitBool:
		return boolValue(node.Bool), nil
	case NodeVar:
		v, ok := e.Get(node.Path)
		if !ok {
			return env.Value{}, fmt.Errorf("guard: unbound variable %q", node.Path)
		}
		return v, nil
	case NodeUnary:
		return evalPointUnary(node, e)
	case NodeBinary:
		return evalPointBinary(node, e)
	case NodeCall:
		return evalPointCall(node, e)
	default:
		return env.Value{}, fmt.Errorf("guard: cannot point-evaluate node kind %v", node.Kind)
	}
}

func boolValue(b bool) env.Value {
	if b {
		return env.Float(1)
	}
	return env.Float(0)
}

func truthy(v env.Value) bool {
	return v.Kind == env.KindFloat && v.Num != 0
}

func evalPointUnary(node *Node, e *env.Env) (env.Value, error) {
	v, err := EvalPoint(node.Left, e)
	if err != nil {
		return env.Value{}, err
	}
	switch node.Op {
	case "!":
		return boolValue(!truthy(v)), nil
	case "-":
		return env.Float(-v.Num), nil
	default:
		return env.Value{}, fmt.Errorf("guard: unknown unary operator %q", node.Op)
	}
}

func evalPointBinary(node *Node, e *env.Env) (env.Value, error) {
	if node.Op == "&&" || node.Op == "||" {
		left, err := EvalPoint(node.Left, e)
		if err != nil {
			return env.Value{}, err
		}
		if node.Op == "&&" && !truthy(left) {
			return boolValue(false), nil
		}
		if node.Op == "||" && truthy(left) {
			return boolValue(true), nil
		}
		right, err := EvalPoint(node.Right, e)
		if err != nil {
			return env.Value{}, err
		}
		if node.Op == "&&" {
			return boolValue(truthy(left) && truthy(right)), nil
		}
		return boolValue(truthy(left) || truthy(right)), nil
	}
	left, err := EvalPoint(node.Left, e)
	if err != nil {
		return env.Value{}, err
	}
	right, err := EvalPoint(node.Right, e)
	if err != nil {
		return env.Value{}, err
	}
	if node.Op == "==" || node.Op == "!=" {
		eq := pointEqual(left, right)
		if node.Op == "!=" {
			eq = !eq
		}
		return boolValue(eq), nil
	}
	if left.Kind != env.KindFloat || right.Kind != env.KindFloat {
		return env.Value{}, fmt.Errorf("guard: operator %q requires numeric operands", node.Op)
	}
	switch node.Op {
	case "+":
		return env.Float(left.Num + right.Num), nil
	case "-":
		return env.Float(left.Num - right.Num), nil
	case "*":
		return env.Float(left.Num * right.Num), nil
	case "/":
		return env.Float(left.Num / right.Num), nil
	case "<":
		return boolValue(left.Num < right.Num), nil
	case "<=":
		return boolValue(left.Num <= right.Num), nil
	case ">":
		return boolValue(left.Num > right.Num), nil
	case ">=":
		return boolValue(left.Num >= right.Num), nil
	default:
		return env.Value{}, fmt.Errorf("guard: unknown binary operator %q", node.Op)
	}
}

func pointEqual(a, b env.Value) bool {
	if a.Kind == env.KindString || b.Kind == env.KindString {
		return a.Str == b.Str
	}
	return a.Num == b.Num
}

func evalPointCall(node *Node, e *env.Env) (env.Value, error) {
	if node.Func == "size" {
		return evalSize(node, e)
	}
	args := make([]env.Value, len(node.Args))
	for i, a := range node.Args {
		v, err := EvalPoint(a, e)
		if err != nil {
			return env.Value{}, err
		}
		args[i] = v
	}
	switch node.Func {
	case "abs":
		return env.Float(math.Abs(args[0].Num)), nil
	case "min":
		return env.Float(math.Min(args[0].Num, args[1].Num)), nil
	case "max":
		return env.Float(math.Max(args[0].Num, args[1].Num)), nil
	default:
		return env.Value{}, fmt.Errorf("guard: function %q is not implemented", node.Func)
	}
}

// evalSize resolves `size(others.<field>)` against the sensed OthersLen
// table rather than evaluating its argument as a scalar, since
// "others.<field>" names an unindexed list, not a bound value.
func evalSize(node *Node, e *env.Env) (env.Value, error) {
	if len(node.Args) != 1 || node.Args[0].Kind != NodeVar {
		return env.Value{}, fmt.Errorf("guard: size() takes a single others.<field> argument")
	}
	const prefix = "others."
	path := node.Args[0].Path
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return env.Value{}, fmt.Errorf("guard: size() only supports others.<field>, got %q", path)
	}
	field := path[len(prefix):]
	return env.Float(float64(e.OthersLen[field])), nil
}
