package guard

import (
	"fmt"

	"github.com/compozy/verse-engine/engine/env"
)

// EvalDiscrete implements §4.2 entry point 2 (discrete pruning): node is
// evaluated with discrete variables bound to their enum values from disc
// and every continuous variable left symbolic (TriUnknown). The result is
// TriFalse only when the guard is provably unsatisfiable from discrete
// information alone; callers must treat TriUnknown exactly like TriTrue
// (§4.2: "conservative — no false negatives").
//
// cont is the set of dotted names the sensor template declares as
// continuous; any NodeVar whose path is not in cont and not found in disc
// is treated as continuous-and-unknown rather than an unbound-variable
// error, since at discrete-pruning time no continuous template has been
// bound yet.
func EvalDiscrete(node *Node, disc *env.Env, cont map[string]struct{}) (Tri, error) {
	switch node.Kind {
	case NodeLitBool:
		if node.Bool {
			return TriTrue, nil
		}
		return TriFalse, nil
	case NodeUnary:
		if node.Op != "!" {
			return TriUnknown, fmt.Errorf("guard: unary operator %q is not a boolean context", node.Op)
		}
		inner, err := EvalDiscrete(node.Left, disc, cont)
		if err != nil {
			return TriUnknown, err
		}
		return triNot(inner), nil
	case NodeBinary:
		return evalDiscreteBinary(node, disc, cont)
	default:
		return TriUnknown, fmt.Errorf("guard: node kind %v is not a boolean expression", node.Kind)
	}
}

func evalDiscreteBinary(node *Node, disc *env.Env, cont map[string]struct{}) (Tri, error) {
	switch node.Op {
	case "&&":
		left, err := EvalDiscrete(node.Left, disc, cont)
		if err != nil {
			return TriUnknown, err
		}
		right, err := EvalDiscrete(node.Right, disc, cont)
		if err != nil {
			return TriUnknown, err
		}
		return triAnd(left, right), nil
	case "||":
		left, err := EvalDiscrete(node.Left, disc, cont)
		if err != nil {
			return TriUnknown, err
		}
		right, err := EvalDiscrete(node.Right, disc, cont)
		if err != nil {
			return TriUnknown, err
		}
		return triOr(left, right), nil
	case "==", "!=":
		return evalDiscreteCompare(node, disc, cont)
	default:
		// Arithmetic/ordering comparisons ('<', '<=', '>', '>=') over
		// possibly-continuous operands cannot be resolved without bounds;
		// if both sides happen to be purely discrete this is still sound
		// to leave unknown since discrete pruning only needs to prove
		// falsity, never truth.
		return TriUnknown, nil
	}
}

// evalDiscreteCompare resolves an equality/inequality comparison when both
// operands are discrete-resolvable (a disc-bound variable or a string/enum
// literal); any operand touching a continuous or unbound name yields
// TriUnknown rather than an error.
func evalDiscreteCompare(node *Node, disc *env.Env, cont map[string]struct{}) (Tri, error) {
	left, leftOK := discreteOperand(node.Left, disc, cont)
	right, rightOK := discreteOperand(node.Right, disc, cont)
	if !leftOK || !rightOK {
		return TriUnknown, nil
	}
	eq := left == right
	if node.Op == "!=" {
		eq = !eq
	}
	if eq {
		return TriTrue, nil
	}
	return TriFalse, nil
}

// discreteOperand resolves a leaf to its string representation when it is
// resolvable from discrete information alone: a disc-bound variable, or a
// string/enum literal. ok is false for anything else (continuous variables,
// unbound names, arithmetic subexpressions).
func discreteOperand(node *Node, disc *env.Env, cont map[string]struct{}) (string, bool) {
	switch node.Kind {
	case NodeLitStr:
		return node.Str, true
	case NodeVar:
		if _, isCont := cont[node.Path]; isCont {
			return "", false
		}
		v, ok := disc.Get(node.Path)
		if !ok {
			return "", false
		}
		if v.Kind == env.KindString {
			return v.Str, true
		}
		return "", false
	default:
		return "", false
	}
}
