// Package automaton holds the controller intermediate representation: the
// declared mode categories and state layout of an agent's controller, its
// guarded Mode Paths, and its Asserts. It has no notion of evaluation; that
// lives in engine/guard, engine/reset, and engine/assert.
package automaton

import "fmt"

// ArgKind identifies the role of one positional argument in a controller's
// decision-function signature.
type ArgKind int

const (
	ArgEgo ArgKind = iota
	ArgOthers
	ArgMap
)

func (k ArgKind) String() string {
	switch k {
	case ArgEgo:
		return "ego"
	case ArgOthers:
		return "others"
	case ArgMap:
		return "map"
	default:
		return "unknown"
	}
}

// ModeDef declares one mode category and its finite set of string-valued
// enum members, e.g. {Name: "VehicleMode", Values: ["Normal", "SwitchLeft"]}.
type ModeDef struct {
	Name   string
	Values []string
}

// HasValue reports whether v is a declared member of this category.
func (m ModeDef) HasValue(v string) bool {
	for _, candidate := range m.Values {
		if candidate == v {
			return true
		}
	}
	return false
}

// StateDef names a record's ordered continuous and discrete fields. The
// continuous order matches the column order of trace rows (§3 invariant i).
type StateDef struct {
	Name              string
	ContinuousFields  []string
	DiscreteFields    []string
}

// ModePath is a guarded reassignment "(var, cond, val)": if cond holds, var
// is reassigned to val. Source is provenance used only for equality during
// incremental-cache diffing (§4.6), never for evaluation.
type ModePath struct {
	Var        string
	Cond       string
	Val        string
	IsDiscrete bool
	Source     string
}

// Assert is a list of preconditions guarding a required condition: if every
// Pre expression holds, Cond must also hold or the assert fires.
type Assert struct {
	Pre   []string
	Cond  string
	Label string
}

// ControllerIR is the parsed shape of one agent's controller: its declared
// mode/state vocabulary, its decision-function argument signature, and its
// flat list of guarded paths and asserts.
type ControllerIR struct {
	ModeDefs  []ModeDef
	StateDefs []StateDef
	Args      []ArgKind
	Paths     []ModePath
	Asserts   []Assert
}

// Controller is the interface the transition engine consumes (§6 "Controller
// IR provider"). A ControllerIR satisfies it directly; implementations that
// parse controller source live outside this module's scope.
type Controller interface {
	GetPaths() []ModePath
	GetAsserts() []Assert
	ArgSignature() []ArgKind
	ModeCategories() []ModeDef
	StateTypes() []StateDef
	ModeIndex(category string) (int, bool)
}

func (c *ControllerIR) GetPaths() []ModePath      { return c.Paths }
func (c *ControllerIR) GetAsserts() []Assert      { return c.Asserts }
func (c *ControllerIR) ArgSignature() []ArgKind   { return c.Args }
func (c *ControllerIR) ModeCategories() []ModeDef { return c.ModeDefs }
func (c *ControllerIR) StateTypes() []StateDef    { return c.StateDefs }

// ModeIndex returns the position of category in ModeDefs, used to validate
// and pad mode tuples.
func (c *ControllerIR) ModeIndex(category string) (int, bool) {
	for i, md := range c.ModeDefs {
		if md.Name == category {
			return i, true
		}
	}
	return 0, false
}

// ValidateModeTuple checks invariant (iv): length equals the number of
// declared mode categories and every value is in its category's enum set.
func (c *ControllerIR) ValidateModeTuple(tuple []string) error {
	if len(tuple) != len(c.ModeDefs) {
		return fmt.Errorf("mode tuple has %d entries, want %d", len(tuple), len(c.ModeDefs))
	}
	for i, md := range c.ModeDefs {
		if !md.HasValue(tuple[i]) {
			return fmt.Errorf("mode category %q: value %q not declared", md.Name, tuple[i])
		}
	}
	return nil
}

// GrowModeCategory adds newValues to the named category's declared set if
// they are not already present, used by the map-driven lane-mode growth
// step (SPEC_FULL §SUPPLEMENTED FEATURES).
func (c *ControllerIR) GrowModeCategory(category string, newValues []string) {
	for i, md := range c.ModeDefs {
		if md.Name != category {
			continue
		}
		existing := make(map[string]struct{}, len(md.Values))
		for _, v := range md.Values {
			existing[v] = struct{}{}
		}
		for _, v := range newValues {
			if _, ok := existing[v]; !ok {
				md.Values = append(md.Values, v)
				existing[v] = struct{}{}
			}
		}
		c.ModeDefs[i] = md
		return
	}
}
