// Package env implements the packed environment binding described in §3 of
// the scenario-engine spec: a mapping from dotted names (ego.x, others.v) to
// either scalar values (simulation) or interval bounds (verification), plus
// an unroll index table recording how many other agents contributed to each
// "others.*" field so quantifier rewriting in engine/guard knows how far to
// unroll.
package env

import "fmt"

// Kind distinguishes the three value shapes a binding can hold. Discrete
// mode/static fields are always String; continuous fields are Float in
// simulation and Interval in verification.
type Kind int

const (
	KindFloat Kind = iota
	KindString
	KindInterval
)

// Value is a tagged union over the three binding shapes. Only the fields
// matching Kind are meaningful.
type Value struct {
	Kind       Kind
	Num        float64
	Str        string
	Low, High  float64
}

func Float(v float64) Value  { return Value{Kind: KindFloat, Num: v} }
func String(v string) Value  { return Value{Kind: KindString, Str: v} }
func Interval(low, high float64) Value {
	return Value{Kind: KindInterval, Low: low, High: high}
}

// AsFloat returns the value as a single scalar: Num for KindFloat, and the
// interval midpoint for KindInterval (used by callers that tolerate losing
// soundness, e.g. logging). Discrete strings return an error.
func (v Value) AsFloat() (float64, error) {
	switch v.Kind {
	case KindFloat:
		return v.Num, nil
	case KindInterval:
		return (v.Low + v.High) / 2, nil
	default:
		return 0, fmt.Errorf("value of kind %v has no float representation", v.Kind)
	}
}

// Bounds returns (low, high) for either shape: a float's bounds are
// degenerate (low == high == Num).
func (v Value) Bounds() (float64, float64, error) {
	switch v.Kind {
	case KindFloat:
		return v.Num, v.Num, nil
	case KindInterval:
		return v.Low, v.High, nil
	default:
		return 0, 0, fmt.Errorf("value of kind %v has no numeric bounds", v.Kind)
	}
}

// Env is the environment bound for one time index: ego/others continuous and
// discrete fields under dotted keys, plus per-field counts of other agents.
type Env struct {
	Vars      map[string]Value
	OthersLen map[string]int
}

// New returns an empty, ready-to-use Env.
func New() *Env {
	return &Env{Vars: make(map[string]Value), OthersLen: make(map[string]int)}
}

// Get looks up a dotted name.
func (e *Env) Get(name string) (Value, bool) {
	v, ok := e.Vars[name]
	return v, ok
}

// Set binds a dotted name to v, overwriting any prior binding.
func (e *Env) Set(name string, v Value) {
	e.Vars[name] = v
}

// OthersField returns the per-agent indexed key for the base "others.<field>"
// name at position idx, e.g. OthersField("v", 2) -> "others.v.2".
func OthersField(field string, idx int) string {
	return fmt.Sprintf("others.%s.%d", field, idx)
}

// SetOthersLen records how many other agents contributed bindings for field,
// used by engine/guard's quantifier unroller to know how far to enumerate.
func (e *Env) SetOthersLen(field string, n int) {
	e.OthersLen[field] = n
}

// Clone returns a deep-independent copy, used when a guard evaluation forks
// the environment to substitute quantifier-unrolled bindings without
// mutating the template shared across paths.
func (e *Env) Clone() *Env {
	out := New()
	for k, v := range e.Vars {
		out.Vars[k] = v
	}
	for k, v := range e.OthersLen {
		out.OthersLen[k] = v
	}
	return out
}
