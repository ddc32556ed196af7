package rules

import (
	"fmt"
	"slices"
)

// LogicOp combines child conditions. A condition with an empty LogicOp is a
// leaf. There is no operator precedence to infer: nesting is always explicit
// in the tree.
type LogicOp string

const (
	LogicAnd LogicOp = "and"
	LogicOr  LogicOp = "or"
	LogicNot LogicOp = "not"
)

// Op is a leaf comparison operator.
type Op string

const (
	OpLt        Op = "lt"
	OpGt        Op = "gt"
	OpLe        Op = "le"
	OpGe        Op = "ge"
	OpEq        Op = "eq"
	OpNe        Op = "ne"
	OpBetween   Op = "between"
	OpInList    Op = "in_list"
	OpChangedBy Op = "changed_by"
)

// SignalKind names the scalar, text or flag a leaf condition reads from the
// unit's perceived state.
type SignalKind string

// Numeric signals.
const (
	SigHealthPct        SignalKind = "health_pct"
	SigEnergy           SignalKind = "energy"
	SigAmmo             SignalKind = "ammo"
	SigNearestEnemyDist SignalKind = "nearest_enemy_dist"
	SigNearestAllyDist  SignalKind = "nearest_ally_dist"
	SigEnemyCount       SignalKind = "enemy_count"
	SigAllyCount        SignalKind = "ally_count"
	SigElapsedTime      SignalKind = "elapsed_time"
)

// Text signals.
const (
	SigPrimaryState     SignalKind = "primary_state"
	SigNearestEnemyBand SignalKind = "nearest_enemy_band"
)

// Boolean flags.
const (
	SigUnderFire   SignalKind = "under_fire"
	SigInCover     SignalKind = "in_cover"
	SigFlanked     SignalKind = "flanked"
	SigOutnumbered SignalKind = "outnumbered"
)

var numericSignals = []SignalKind{
	SigHealthPct, SigEnergy, SigAmmo,
	SigNearestEnemyDist, SigNearestAllyDist,
	SigEnemyCount, SigAllyCount, SigElapsedTime,
}

var textSignals = []SignalKind{SigPrimaryState, SigNearestEnemyBand}

var flagSignals = []SignalKind{SigUnderFire, SigInCover, SigFlanked, SigOutnumbered}

// Condition is a tagged tree: either a leaf comparison over one signal, or a
// logical combination of children.
type Condition struct {
	Kind       SignalKind  `json:"kind,omitempty"`
	Op         Op          `json:"operator,omitempty"`
	Threshold  float64     `json:"threshold,omitempty"`
	Secondary  *float64    `json:"secondary_threshold,omitempty"`
	ListValues []string    `json:"list_values,omitempty"`
	Logic      LogicOp     `json:"logical_op,omitempty"`
	Children   []Condition `json:"children,omitempty"`
}

// Validate checks the tree is well-formed: compounds carry children and
// nothing else, NOT has exactly one child, leaves use an operator that fits
// their signal. Validation happens before compilation so a malformed tree
// never reaches the evaluator.
func (c Condition) Validate() error {
	if c.Logic != "" {
		switch c.Logic {
		case LogicAnd, LogicOr:
			if len(c.Children) == 0 {
				return fmt.Errorf("%s condition has no children", c.Logic)
			}
		case LogicNot:
			if len(c.Children) != 1 {
				return fmt.Errorf("not condition needs exactly 1 child, has %d", len(c.Children))
			}
		default:
			return fmt.Errorf("unknown logical op %q", c.Logic)
		}
		if c.Kind != "" || c.Op != "" {
			return fmt.Errorf("compound %s condition must not carry a leaf comparison", c.Logic)
		}
		for i, child := range c.Children {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("child %d: %w", i, err)
			}
		}
		return nil
	}

	if len(c.Children) > 0 {
		return fmt.Errorf("leaf condition %q must not have children", c.Kind)
	}

	switch {
	case slices.Contains(flagSignals, c.Kind):
		if c.Op != "" && c.Op != OpEq && c.Op != OpNe {
			return fmt.Errorf("flag %q supports only eq/ne, got %q", c.Kind, c.Op)
		}
		return nil
	case slices.Contains(textSignals, c.Kind):
		switch c.Op {
		case OpInList:
			if len(c.ListValues) == 0 {
				return fmt.Errorf("in_list on %q has no list values", c.Kind)
			}
		case OpEq, OpNe:
			if len(c.ListValues) != 1 {
				return fmt.Errorf("%s on text signal %q needs exactly one list value", c.Op, c.Kind)
			}
		default:
			return fmt.Errorf("text signal %q supports eq/ne/in_list, got %q", c.Kind, c.Op)
		}
		return nil
	case slices.Contains(numericSignals, c.Kind):
		switch c.Op {
		case OpLt, OpGt, OpLe, OpGe, OpEq, OpNe, OpChangedBy:
			return nil
		case OpBetween:
			if c.Secondary == nil {
				return fmt.Errorf("between on %q needs a secondary threshold", c.Kind)
			}
			return nil
		default:
			return fmt.Errorf("numeric signal %q does not support operator %q", c.Kind, c.Op)
		}
	default:
		return fmt.Errorf("unknown signal kind %q", c.Kind)
	}
}

// Leaf builds a numeric leaf comparison. Convenience for default trigger sets
// and tests.
func Leaf(kind SignalKind, op Op, threshold float64) Condition {
	return Condition{Kind: kind, Op: op, Threshold: threshold}
}

// Flag builds a boolean-flag leaf.
func Flag(kind SignalKind) Condition {
	return Condition{Kind: kind, Op: OpEq}
}

// All combines children with AND.
func All(children ...Condition) Condition {
	return Condition{Logic: LogicAnd, Children: children}
}

// Any combines children with OR.
func Any(children ...Condition) Condition {
	return Condition{Logic: LogicOr, Children: children}
}

// Not negates a single child.
func Not(child Condition) Condition {
	return Condition{Logic: LogicNot, Children: []Condition{child}}
}
