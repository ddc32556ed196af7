package rules

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"

	"fieldmind/catalog"
)

// Trigger is one reactive condition→action binding. Triggers are the
// "subconscious" layer: they keep evaluating every cycle no matter what the
// unit's sequential plan is doing.
type Trigger struct {
	ID            string
	Condition     Condition
	Prerequisites []Condition
	Action        catalog.Kind
	Params        map[string]any
	Priority      int // higher evaluates first
	Speech        string
	Cooldown      float64 // seconds between firings

	// Mutable evaluation state, touched only by the engine goroutine.
	CooldownRemaining float64
	failures          int
	seq               int // insertion order, ties broken oldest first

	program *vm.Program
	prereqs []*vm.Program
}

// NewTrigger builds a trigger with a fresh ID. Compilation happens at
// install time in the engine, not here, so a Trigger literal stays cheap to
// construct in tests and default sets.
func NewTrigger(cond Condition, action catalog.Kind, params map[string]any, priority int) *Trigger {
	return &Trigger{
		ID:        uuid.NewString(),
		Condition: cond,
		Action:    action,
		Params:    params,
		Priority:  priority,
	}
}

// compile validates and compiles the main condition and every prerequisite.
func (t *Trigger) compile() error {
	prog, err := CompileCondition(t.Condition)
	if err != nil {
		return fmt.Errorf("trigger %s: %w", t.ID, err)
	}
	t.program = prog
	t.prereqs = t.prereqs[:0]
	for i, p := range t.Prerequisites {
		pp, err := CompileCondition(p)
		if err != nil {
			return fmt.Errorf("trigger %s prerequisite %d: %w", t.ID, i, err)
		}
		t.prereqs = append(t.prereqs, pp)
	}
	return nil
}

// ready reports whether the trigger may fire: off cooldown, prerequisites
// hold, and the main condition holds.
func (t *Trigger) ready(env TriggerEnv) bool {
	if t.CooldownRemaining > 0 {
		return false
	}
	for _, p := range t.prereqs {
		if !EvalCondition(p, env) {
			return false
		}
	}
	return EvalCondition(t.program, env)
}

// Table is one unit's ordered trigger collection plus the bookkeeping the
// engine needs: install-time signal baselines for changed_by conditions and
// the elapsed-time origin.
type Table struct {
	unitID    string
	triggers  []*Trigger
	baselines map[string]float64
	elapsed   float64
	nextSeq   int
}

func newTable(unitID string, trigs []*Trigger, baselines map[string]float64) *Table {
	tb := &Table{unitID: unitID, baselines: baselines}
	for _, tr := range trigs {
		tr.seq = tb.nextSeq
		tb.nextSeq++
		tb.triggers = append(tb.triggers, tr)
	}
	return tb
}

// sorted returns triggers by descending priority. The sort is stable and the
// backing slice stays in insertion order, so priority ties always resolve to
// the oldest trigger. Repeated cycles over unchanged state visit triggers in
// the same order, which is what makes replays deterministic.
func (tb *Table) sorted() []*Trigger {
	out := make([]*Trigger, len(tb.triggers))
	copy(out, tb.triggers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}
