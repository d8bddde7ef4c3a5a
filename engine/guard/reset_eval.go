package guard

import (
	"fmt"

	"github.com/compozy/verse-engine/engine/env"
)

// EvalDiscreteValues evaluates a reset value expression in a discrete
// (mode/static) context (§4.3): a single enum value is wrapped in a
// singleton slice, a NodeList literal enumerates the nondeterministic set
// of candidate values. Used by engine/reset to Cartesian-expand discrete
// targets.
func EvalDiscreteValues(node *Node, e *env.Env) ([]string, error) {
	if node.Kind == NodeList {
		out := make([]string, 0, len(node.Args))
		for _, elem := range node.Args {
			v, err := EvalPoint(elem, e)
			if err != nil {
				return nil, err
			}
			s, err := discreteString(v)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	v, err := EvalPoint(node, e)
	if err != nil {
		return nil, err
	}
	s, err := discreteString(v)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}

func discreteString(v env.Value) (string, error) {
	switch v.Kind {
	case env.KindString:
		return v.Str, nil
	default:
		return "", fmt.Errorf("guard: discrete reset value must be string-valued, got kind %v", v.Kind)
	}
}
