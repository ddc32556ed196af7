package command

import (
	"math/rand"
	"reflect"
	"testing"

	"fieldmind/model"
)

func soldier(id string, x, y float64) model.UnitSnapshot {
	return model.UnitSnapshot{ID: id, Archetype: model.ArchetypeSoldier, Pos: model.Vec2{X: x, Y: y}}
}

func TestSingleUnitIsIndividual(t *testing.T) {
	d := DetermineControlTier([]model.UnitSnapshot{soldier("u1", 0, 0)}, DefaultTierConfig())
	if d.Tier != model.TierIndividual {
		t.Errorf("single unit: got %s, want individual", d.Tier)
	}
	if len(d.Clusters) != 1 || len(d.Clusters[0]) != 1 {
		t.Errorf("expected one singleton cluster, got %v", d.Clusters)
	}
}

func TestTightSmallGroupIsIndividual(t *testing.T) {
	units := []model.UnitSnapshot{
		soldier("u1", 0, 0),
		soldier("u2", 5, 0),
		soldier("u3", 0, 8),
	}
	d := DetermineControlTier(units, DefaultTierConfig())
	if d.Tier != model.TierIndividual {
		t.Errorf("3 same-archetype units within 10: got %s, want individual (%s)", d.Tier, d.Reasoning)
	}
	if len(d.Clusters) != 1 {
		t.Errorf("expected a single cluster, got %v", d.Clusters)
	}
}

func TestLargeGroupIsSquad(t *testing.T) {
	var units []model.UnitSnapshot
	for i := 0; i < 6; i++ {
		units = append(units, soldier(string(rune('a'+i)), float64(i), 0))
	}
	d := DetermineControlTier(units, DefaultTierConfig())
	if d.Tier != model.TierSquad {
		t.Errorf("6 units: got %s, want squad (%s)", d.Tier, d.Reasoning)
	}
}

func TestDistantClustersAreSquad(t *testing.T) {
	units := []model.UnitSnapshot{
		soldier("u1", 0, 0),
		soldier("u2", 3, 0),
		soldier("u3", 40, 0),
		soldier("u4", 43, 0),
	}
	d := DetermineControlTier(units, DefaultTierConfig())
	if d.Tier != model.TierSquad {
		t.Errorf("two clusters ~40 apart: got %s, want squad (%s)", d.Tier, d.Reasoning)
	}
	if len(d.Clusters) != 2 {
		t.Errorf("expected 2 clusters, got %v", d.Clusters)
	}
}

func TestNearbyClustersStayIndividual(t *testing.T) {
	// Two clusters, but centroids only ~20 apart: under the separation limit.
	units := []model.UnitSnapshot{
		soldier("u1", 0, 0),
		soldier("u2", 2, 0),
		soldier("u3", 20, 0),
		soldier("u4", 22, 0),
	}
	d := DetermineControlTier(units, DefaultTierConfig())
	if d.Tier != model.TierIndividual {
		t.Errorf("nearby clusters: got %s, want individual (%s)", d.Tier, d.Reasoning)
	}
}

func TestMixedArchetypesAreSquad(t *testing.T) {
	units := []model.UnitSnapshot{
		{ID: "u1", Archetype: model.ArchetypeSoldier, Pos: model.Vec2{X: 0, Y: 0}},
		{ID: "u2", Archetype: model.ArchetypeScout, Pos: model.Vec2{X: 2, Y: 0}},
		{ID: "u3", Archetype: model.ArchetypeMedic, Pos: model.Vec2{X: 4, Y: 0}},
	}
	d := DetermineControlTier(units, DefaultTierConfig())
	if d.Tier != model.TierSquad {
		t.Errorf("3 distinct archetypes: got %s, want squad (%s)", d.Tier, d.Reasoning)
	}
}

func TestOrderIndependence(t *testing.T) {
	units := []model.UnitSnapshot{
		soldier("u1", 0, 0),
		soldier("u2", 3, 0),
		soldier("u3", 40, 0),
		soldier("u4", 43, 0),
		{ID: "u5", Archetype: model.ArchetypeScout, Pos: model.Vec2{X: 41, Y: 2}},
	}
	base := DetermineControlTier(units, DefaultTierConfig())

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := make([]model.UnitSnapshot, len(units))
		copy(shuffled, units)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := DetermineControlTier(shuffled, DefaultTierConfig())
		if got.Tier != base.Tier {
			t.Fatalf("permutation %d changed tier: %s vs %s", i, got.Tier, base.Tier)
		}
		if !reflect.DeepEqual(got.Clusters, base.Clusters) {
			t.Fatalf("permutation %d changed clusters: %v vs %v", i, got.Clusters, base.Clusters)
		}
	}
}

func TestChainedUnitsFormOneCluster(t *testing.T) {
	// u1-u2 and u2-u3 are each within range; single linkage joins all three
	// even though u1-u3 exceeds the join distance.
	units := []model.UnitSnapshot{
		soldier("u1", 0, 0),
		soldier("u2", 14, 0),
		soldier("u3", 28, 0),
	}
	d := DetermineControlTier(units, DefaultTierConfig())
	if len(d.Clusters) != 1 {
		t.Errorf("chained units should form one cluster, got %v", d.Clusters)
	}
}
