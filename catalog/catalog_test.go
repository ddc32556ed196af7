package catalog

import (
	"errors"
	"testing"

	"fieldmind/model"
)

func TestLookup(t *testing.T) {
	c := Builtin()

	def, err := c.Lookup(KindRetreatTo)
	if err != nil {
		t.Fatalf("Lookup(retreat_to) failed: %v", err)
	}
	if def.Interruptible {
		t.Error("retreat_to must not be interruptible")
	}

	if _, err := c.Lookup("teleport"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown action, got %v", err)
	}
}

func TestArchetypeEligibility(t *testing.T) {
	c := Builtin()

	heal, _ := c.Lookup(KindHeal)
	if heal.Eligible(model.ArchetypeSoldier) {
		t.Error("soldier must not be eligible for heal")
	}
	if !heal.Eligible(model.ArchetypeMedic) {
		t.Error("medic must be eligible for heal")
	}

	move, _ := c.Lookup(KindMoveTo)
	for _, a := range model.Archetypes() {
		if !move.Eligible(a) {
			t.Errorf("common action move_to should allow %s", a)
		}
	}
}

func TestKindsForIncludesSpecialistActions(t *testing.T) {
	c := Builtin()

	engineer := c.KindsFor(model.ArchetypeEngineer)
	has := func(k Kind) bool {
		for _, got := range engineer {
			if got == k {
				return true
			}
		}
		return false
	}
	if !has(KindConstruct) || !has(KindRepair) || !has(KindLayMines) {
		t.Errorf("engineer action list missing specialist kinds: %v", engineer)
	}
	if has(KindHeal) {
		t.Errorf("engineer must not see medic actions: %v", engineer)
	}
}

func TestValidateParams(t *testing.T) {
	c := Builtin()
	def, _ := c.Lookup(KindConstruct)

	missing := ValidateParams(def, map[string]any{"structure": "bunker"})
	if len(missing) != 1 || missing[0] != "node" {
		t.Errorf("expected missing [node], got %v", missing)
	}
	if missing := ValidateParams(def, map[string]any{"structure": "bunker", "node": "alpha"}); missing != nil {
		t.Errorf("expected no missing params, got %v", missing)
	}
}

func TestExecutionTime(t *testing.T) {
	c := Builtin()

	hold, _ := c.Lookup(KindHoldPosition)
	if d, ok := ExecutionTime(hold, nil); !ok || d != 10 {
		t.Errorf("hold_position default: got (%v, %v), want (10, true)", d, ok)
	}
	if d, ok := ExecutionTime(hold, map[string]any{"duration": 3.5}); !ok || d != 3.5 {
		t.Errorf("duration override: got (%v, %v), want (3.5, true)", d, ok)
	}

	cover, _ := c.Lookup(KindTakeCover)
	if d, ok := ExecutionTime(cover, nil); !ok || d != 0 {
		t.Errorf("immediate action: got (%v, %v), want (0, true)", d, ok)
	}

	// Condition-based durations are unknowable up front.
	move, _ := c.Lookup(KindMoveTo)
	if _, ok := ExecutionTime(move, map[string]any{"node": "alpha"}); ok {
		t.Error("condition-based action must report unknown duration")
	}
}
