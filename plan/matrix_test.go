package plan

import (
	"testing"

	"fieldmind/model"
)

func TestTunePrimaryAssignsDescendingBiases(t *testing.T) {
	m := DefaultMatrix(model.ArchetypeScout)
	priority := []string{model.StateRetreat, model.StateDefend, model.StateAttack, model.StateFollow}

	if err := m.TunePrimary(priority, DefaultBiasSequence); err != nil {
		t.Fatalf("TunePrimary failed: %v", err)
	}

	want := map[string]float64{
		model.StateRetreat: 0.3,
		model.StateDefend:  0.2,
		model.StateAttack:  0.1,
		model.StateFollow:  0.0,
	}
	for state, bias := range want {
		if got := m.Primary[state]; got != bias {
			t.Errorf("state %s: got bias %v, want %v", state, got, bias)
		}
	}

	// Ability biases are untouched by tuning.
	if got := m.Abilities["activate_stealth"]; got != 0.4 {
		t.Errorf("ability bias changed by tuning: got %v, want 0.4", got)
	}
}

func TestTunePrimaryRejectsBadLists(t *testing.T) {
	cases := []struct {
		name     string
		priority []string
	}{
		{"too short", []string{model.StateAttack, model.StateDefend}},
		{"unknown state", []string{model.StateAttack, model.StateDefend, model.StateRetreat, "patrol"}},
		{"duplicate", []string{model.StateAttack, model.StateAttack, model.StateRetreat, model.StateFollow}},
	}
	for _, tc := range cases {
		m := DefaultMatrix(model.ArchetypeSoldier)
		if err := m.TunePrimary(tc.priority, DefaultBiasSequence); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
		// A rejected tune must not partially apply.
		for _, s := range model.PrimaryStates() {
			if m.Primary[s] != 0.1 {
				t.Errorf("%s: bias for %s changed on rejected tune", tc.name, s)
			}
		}
	}
}

func TestMatrixSetLazyCreation(t *testing.T) {
	s := NewMatrixSet()
	m := s.Get("u1", model.ArchetypeMedic)
	if m.Abilities["heal"] != 0.5 {
		t.Errorf("expected medic heal bias 0.5, got %v", m.Abilities["heal"])
	}
	if again := s.Get("u1", model.ArchetypeScout); again != m {
		t.Error("Get must return the same matrix for the same unit")
	}
}

func TestMatrixSetTuneUnknownUnit(t *testing.T) {
	s := NewMatrixSet()
	archetypeOf := func(id string) (model.Archetype, bool) { return "", false }
	err := s.Tune([]string{"ghost"}, archetypeOf, model.PrimaryStates(), DefaultBiasSequence)
	if err == nil {
		t.Error("expected error for unknown unit")
	}
}
