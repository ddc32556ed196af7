package plan

import (
	"fmt"
	"sync"

	"fieldmind/model"
)

// DefaultBiasSequence maps priority rank → bias. Rank 0 (most important
// primary state) gets the largest bias.
var DefaultBiasSequence = [4]float64{0.3, 0.2, 0.1, 0.0}

// BehaviorMatrix is a unit's decision weights: exactly four primary-state
// biases plus independent archetype ability biases. Command tuning rewrites
// the four primary entries and nothing else. Ability biases keep their
// static defaults for the archetype's whole lifetime.
type BehaviorMatrix struct {
	Archetype model.Archetype
	Primary   map[string]float64
	Abilities map[string]float64
}

// DefaultMatrix returns the archetype's base matrix. Primary biases start
// balanced; ability biases encode the archetype's standing inclinations.
func DefaultMatrix(a model.Archetype) *BehaviorMatrix {
	m := &BehaviorMatrix{
		Archetype: a,
		Primary: map[string]float64{
			model.StateAttack:  0.1,
			model.StateDefend:  0.1,
			model.StateRetreat: 0.1,
			model.StateFollow:  0.1,
		},
		Abilities: map[string]float64{},
	}
	switch a {
	case model.ArchetypeScout:
		m.Abilities["activate_stealth"] = 0.4
		m.Abilities["spot_targets"] = 0.3
	case model.ArchetypeEngineer:
		m.Abilities["construct"] = 0.35
		m.Abilities["repair"] = 0.3
		m.Abilities["lay_mines"] = 0.2
	case model.ArchetypeHeavy:
		m.Abilities["suppressing_fire"] = 0.4
	case model.ArchetypeMedic:
		m.Abilities["heal"] = 0.5
	}
	return m
}

// TunePrimary performs the one-shot strategist→tactician translation: the
// priority list (a permutation of the four primary states, enforced by the
// validator) assigns each state a bias from the descending sequence. Not a
// continuous adjustment; the matrix then stays fixed until the next command.
func (m *BehaviorMatrix) TunePrimary(priority []string, seq [4]float64) error {
	if len(priority) != 4 {
		return fmt.Errorf("priority list has %d entries, want 4", len(priority))
	}
	tuned := make(map[string]float64, 4)
	for rank, state := range priority {
		if _, ok := m.Primary[state]; !ok {
			return fmt.Errorf("unknown primary state %q", state)
		}
		if _, dup := tuned[state]; dup {
			return fmt.Errorf("duplicate primary state %q", state)
		}
		tuned[state] = seq[rank]
	}
	m.Primary = tuned
	return nil
}

// MatrixSet holds one matrix per unit, created lazily from the archetype
// default on first access.
type MatrixSet struct {
	mu       sync.Mutex
	matrices map[string]*BehaviorMatrix
}

func NewMatrixSet() *MatrixSet {
	return &MatrixSet{matrices: make(map[string]*BehaviorMatrix)}
}

// Get returns the unit's matrix, creating the archetype default if absent.
func (s *MatrixSet) Get(unitID string, a model.Archetype) *BehaviorMatrix {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matrices[unitID]
	if !ok {
		m = DefaultMatrix(a)
		s.matrices[unitID] = m
	}
	return m
}

// Tune applies the priority list to every listed unit.
func (s *MatrixSet) Tune(unitIDs []string, archetypeOf func(string) (model.Archetype, bool), priority []string, seq [4]float64) error {
	for _, id := range unitIDs {
		a, ok := archetypeOf(id)
		if !ok {
			return fmt.Errorf("unknown unit %q", id)
		}
		if err := s.Get(id, a).TunePrimary(priority, seq); err != nil {
			return fmt.Errorf("unit %q: %w", id, err)
		}
	}
	return nil
}

// Remove drops a unit's matrix (unit died).
func (s *MatrixSet) Remove(unitID string) {
	s.mu.Lock()
	delete(s.matrices, unitID)
	s.mu.Unlock()
}
