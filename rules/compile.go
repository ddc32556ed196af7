package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Source renders a validated condition tree as expr source. Every compound
// node is parenthesized, so operator precedence never enters the picture;
// the tree is the grouping. Generated source only calls TriggerEnv helpers,
// which are total functions, so a compiled program cannot fail at runtime.
func Source(c Condition) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	return source(c), nil
}

func source(c Condition) string {
	if c.Logic != "" {
		parts := make([]string, len(c.Children))
		for i, child := range c.Children {
			parts[i] = source(child)
		}
		switch c.Logic {
		case LogicAnd:
			return "(" + strings.Join(parts, " && ") + ")"
		case LogicOr:
			return "(" + strings.Join(parts, " || ") + ")"
		default: // LogicNot, single child guaranteed by Validate
			return "!" + parts[0]
		}
	}
	return leafSource(c)
}

func leafSource(c Condition) string {
	switch {
	case isFlag(c.Kind):
		if c.Op == OpNe {
			return fmt.Sprintf("!Flag(%q)", c.Kind)
		}
		return fmt.Sprintf("Flag(%q)", c.Kind)
	case isText(c.Kind):
		values := make([]string, len(c.ListValues))
		for i, v := range c.ListValues {
			values[i] = strconv.Quote(v)
		}
		args := strings.Join(values, ", ")
		if c.Op == OpNe {
			return fmt.Sprintf("NotInList(Text(%q), %s)", c.Kind, args)
		}
		// eq with one value and in_list share a shape.
		return fmt.Sprintf("InList(Text(%q), %s)", c.Kind, args)
	}

	sig := fmt.Sprintf("Signal(%q)", c.Kind)
	t := num(c.Threshold)
	switch c.Op {
	case OpLt:
		return fmt.Sprintf("Lt(%s, %s)", sig, t)
	case OpGt:
		return fmt.Sprintf("Gt(%s, %s)", sig, t)
	case OpLe:
		return fmt.Sprintf("Le(%s, %s)", sig, t)
	case OpGe:
		return fmt.Sprintf("Ge(%s, %s)", sig, t)
	case OpEq:
		return fmt.Sprintf("Eq(%s, %s)", sig, t)
	case OpNe:
		return fmt.Sprintf("Ne(%s, %s)", sig, t)
	case OpBetween:
		return fmt.Sprintf("Between(%s, %s, %s)", sig, t, num(*c.Secondary))
	default: // OpChangedBy, guaranteed by Validate
		return fmt.Sprintf("ChangedBy(%q, %s)", c.Kind, t)
	}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func isFlag(k SignalKind) bool {
	for _, f := range flagSignals {
		if f == k {
			return true
		}
	}
	return false
}

func isText(k SignalKind) bool {
	for _, t := range textSignals {
		if t == k {
			return true
		}
	}
	return false
}

// CompileCondition validates a condition tree and compiles it to expr
// bytecode over TriggerEnv. Evaluation short-circuits through && and ||.
func CompileCondition(c Condition) (*vm.Program, error) {
	src, err := Source(c)
	if err != nil {
		return nil, err
	}
	prog, err := expr.Compile(src, expr.Env(TriggerEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", src, err)
	}
	return prog, nil
}

// EvalCondition runs a compiled condition against an env. Any evaluation
// error degrades to false: a broken condition must never take down the tick.
func EvalCondition(prog *vm.Program, env TriggerEnv) bool {
	out, err := vm.Run(prog, env)
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}
