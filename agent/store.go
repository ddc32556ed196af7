package agent

import (
	"sort"
	"sync"

	"fieldmind/model"
)

// Store holds the latest snapshot for every known unit. The host pushes
// batches each tick; readers always see the most recent state for a unit,
// even when a batch omits it.
type Store struct {
	mu    sync.RWMutex
	units map[string]model.UnitSnapshot
	tick  uint64
}

func NewStore() *Store {
	return &Store{units: make(map[string]model.UnitSnapshot)}
}

// Apply merges a batch and returns the IDs seen for the first time, sorted
// so downstream installs happen in a stable order.
func (s *Store) Apply(tick uint64, units []model.UnitSnapshot) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick = tick
	var fresh []string
	for _, u := range units {
		if _, ok := s.units[u.ID]; !ok {
			fresh = append(fresh, u.ID)
		}
		u.Tick = tick
		s.units[u.ID] = u
	}
	sort.Strings(fresh)
	return fresh
}

// Snapshot implements rules.SnapshotProvider.
func (s *Store) Snapshot(unitID string) (model.UnitSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[unitID]
	return u, ok
}

func (s *Store) Remove(unitID string) {
	s.mu.Lock()
	delete(s.units, unitID)
	s.mu.Unlock()
}

// Tick returns the most recent host tick.
func (s *Store) Tick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}
