// Package guard implements the tagged-variant expression AST, parser, and
// the evaluation modes described in §4.2 and §9 of the scenario-engine
// spec: quantifier unrolling, discrete pruning, hybrid pruning, continuous
// containment, and point evaluation for simulation.
package guard

// NodeKind tags the variant a Node holds.
type NodeKind int

const (
	NodeLitNum NodeKind = iota
	NodeLitStr
	NodeLitBool
	NodeVar
	NodeUnary
	NodeBinary
	NodeCall
	NodeQuant
	NodeList
)

// Node is the tagged-variant AST node. Only the fields matching Kind are
// meaningful; the rest are zero.
type Node struct {
	Kind NodeKind

	// NodeLitNum / NodeLitStr / NodeLitBool
	Num  float64
	Str  string
	Bool bool

	// NodeVar: a dotted path, e.g. "ego.x", "others.v", or "o.x" inside a
	// quantifier body before unrolling.
	Path string

	// NodeUnary: Op in {"-", "!"}
	// NodeBinary: Op in {"+","-","*","/","==","!=","<","<=",">",">=","&&","||"}
	Op          string
	Left, Right *Node

	// NodeCall: Func is one of the whitelisted function names; Args are its
	// evaluated operands.
	// NodeList: Args are the list's elements, used by reset expressions that
	// assign a set of candidate values to a discrete target (§4.3
	// "nondeterministic mode assignment"), e.g. "[SwitchLeft, SwitchRight]".
	Func string
	Args []*Node

	// NodeQuant: QuantOp is "forall" or "exists"; BoundVar is the name bound
	// inside Body (e.g. "o" in "forall o in others: o.x > 0"); Body is the
	// predicate evaluated once per unrolled index.
	QuantOp  string
	BoundVar string
	Body     *Node
}

// Conjoin ANDs a list of top-level predicates together (§4.2: "multiple
// top-level predicates are conjoined"). Conjoin of an empty list is an
// error at the call site, not here; callers must check for an empty guard
// list themselves per §4.2's edge case.
func Conjoin(nodes []*Node) *Node {
	if len(nodes) == 0 {
		return nil
	}
	out := nodes[0]
	for _, n := range nodes[1:] {
		out = &Node{Kind: NodeBinary, Op: "&&", Left: out, Right: n}
	}
	return out
}
