package guard

import (
	"strconv"
	"strings"
)

// Updater records how a quantifier's bound variable was unrolled: the base
// field quantified over (e.g. "x" from "o.x") and the indexed env keys
// substituted in, one per other agent (§4.2.1, §9 "quantifier unrolling").
type Updater struct {
	BoundVar string
	Field    string
	Names    []string
}

// ParseAnyAll implements §4.2 entry point 1: it walks node for quantifiers
// over `others` and returns a quantifier-free, logically equivalent AST plus
// the Updater recipe describing the substitution performed. A node with no
// quantifier is returned unchanged with an empty updater map.
func ParseAnyAll(node *Node, othersCount int) (*Node, map[string]Updater) {
	updaters := make(map[string]Updater)
	out := unroll(node, othersCount, updaters)
	return out, updaters
}

func unroll(node *Node, othersCount int, updaters map[string]Updater) *Node {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case NodeQuant:
		return unrollQuant(node, othersCount, updaters)
	case NodeUnary:
		left := unroll(node.Left, othersCount, updaters)
		if left == node.Left {
			return node
		}
		return &Node{Kind: NodeUnary, Op: node.Op, Left: left}
	case NodeBinary:
		left := unroll(node.Left, othersCount, updaters)
		right := unroll(node.Right, othersCount, updaters)
		if left == node.Left && right == node.Right {
			return node
		}
		return &Node{Kind: NodeBinary, Op: node.Op, Left: left, Right: right}
	case NodeCall:
		args := make([]*Node, len(node.Args))
		changed := false
		for i, a := range node.Args {
			args[i] = unroll(a, othersCount, updaters)
			changed = changed || args[i] != a
		}
		if !changed {
			return node
		}
		return &Node{Kind: NodeCall, Func: node.Func, Args: args}
	default:
		return node
	}
}

func unrollQuant(node *Node, othersCount int, updaters map[string]Updater) *Node {
	field := boundVarField(node.Body, node.BoundVar)
	names := make([]string, 0, othersCount)
	var instances []*Node
	for i := 0; i < othersCount; i++ {
		names = append(names, substPath(field, i))
		instances = append(instances, substBoundVar(node.Body, node.BoundVar, i))
	}
	if field != "" {
		updaters[node.BoundVar] = Updater{BoundVar: node.BoundVar, Field: field, Names: names}
	}
	if len(instances) == 0 {
		// Vacuous quantification: forall over an empty set is true, exists
		// over an empty set is false.
		return &Node{Kind: NodeLitBool, Bool: node.QuantOp == "forall"}
	}
	combined := instances[0]
	op := "&&"
	if node.QuantOp == "exists" {
		op = "||"
	}
	for _, inst := range instances[1:] {
		combined = &Node{Kind: NodeBinary, Op: op, Left: combined, Right: inst}
	}
	return combined
}

// boundVarField finds the field name used as "<boundVar>.<field>" anywhere
// in body, used only to name the Updater; substitution itself walks the
// full body independently of this lookup.
func boundVarField(node *Node, boundVar string) string {
	if node == nil {
		return ""
	}
	if node.Kind == NodeVar && strings.HasPrefix(node.Path, boundVar+".") {
		return strings.TrimPrefix(node.Path, boundVar+".")
	}
	if f := boundVarField(node.Left, boundVar); f != "" {
		return f
	}
	if f := boundVarField(node.Right, boundVar); f != "" {
		return f
	}
	for _, a := range node.Args {
		if f := boundVarField(a, boundVar); f != "" {
			return f
		}
	}
	return ""
}

func substPath(field string, idx int) string {
	return othersIndexedKey(field, idx)
}

// othersIndexedKey mirrors env.OthersField's naming convention without
// importing engine/env, keeping this package's dependency surface limited
// to the AST it evaluates.
func othersIndexedKey(field string, idx int) string {
	return "others." + field + "." + strconv.Itoa(idx)
}

func substBoundVar(node *Node, boundVar string, idx int) *Node {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case NodeVar:
		if strings.HasPrefix(node.Path, boundVar+".") {
			field := strings.TrimPrefix(node.Path, boundVar+".")
			return &Node{Kind: NodeVar, Path: substPath(field, idx)}
		}
		return node
	case NodeUnary:
		return &Node{Kind: NodeUnary, Op: node.Op, Left: substBoundVar(node.Left, boundVar, idx)}
	case NodeBinary:
		return &Node{
			Kind: NodeBinary, Op: node.Op,
			Left:  substBoundVar(node.Left, boundVar, idx),
			Right: substBoundVar(node.Right, boundVar, idx),
		}
	case NodeCall:
		args := make([]*Node, len(node.Args))
		for i, a := range node.Args {
			args[i] = substBoundVar(a, boundVar, idx)
		}
		return &Node{Kind: NodeCall, Func: node.Func, Args: args}
	default:
		return node
	}
}
