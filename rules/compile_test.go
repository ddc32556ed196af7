package rules

import (
	"testing"

	"fieldmind/model"
)

func envFor(snap model.UnitSnapshot, elapsed float64, baselines map[string]float64) TriggerEnv {
	return TriggerEnv{Snap: snap, Ctx: NewEvalContext(snap, elapsed, baselines)}
}

func mustEval(t *testing.T, c Condition, env TriggerEnv) bool {
	t.Helper()
	prog, err := CompileCondition(c)
	if err != nil {
		t.Fatalf("CompileCondition failed: %v", err)
	}
	return EvalCondition(prog, env)
}

func TestSourceExplicitGrouping(t *testing.T) {
	c := All(
		Leaf(SigHealthPct, OpLt, 0.5),
		Any(Flag(SigUnderFire), Leaf(SigAmmo, OpGt, 0)),
	)
	src, err := Source(c)
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}
	want := `(Lt(Signal("health_pct"), 0.5) && (Flag("under_fire") || Gt(Signal("ammo"), 0)))`
	if src != want {
		t.Errorf("Source mismatch:\n got  %s\n want %s", src, want)
	}
}

func TestCompoundEvaluation(t *testing.T) {
	snap := model.UnitSnapshot{
		ID:        "u1",
		HealthPct: 0.2,
		Ammo:      5,
		UnderFire: false,
	}
	env := envFor(snap, 0, nil)

	c := All(
		Leaf(SigHealthPct, OpLt, 0.25),
		Any(Flag(SigUnderFire), Leaf(SigAmmo, OpGt, 0)),
	)
	if !mustEval(t, c, env) {
		t.Error("expected low-health unit with ammo to match")
	}

	// NOT inverts the inner leaf.
	if mustEval(t, Not(Leaf(SigHealthPct, OpLt, 0.25)), env) {
		t.Error("NOT of a true leaf should be false")
	}
}

func TestMissingSignalNeverMatches(t *testing.T) {
	// No visible enemies: nearest_enemy_dist is unavailable.
	snap := model.UnitSnapshot{ID: "u1", HealthPct: 1.0}
	env := envFor(snap, 0, nil)

	cases := []Condition{
		Leaf(SigNearestEnemyDist, OpLt, 1000),
		Leaf(SigNearestEnemyDist, OpGt, 0),
		Leaf(SigNearestEnemyDist, OpNe, 5), // ne is still false when missing
		{Kind: SigNearestEnemyBand, Op: OpEq, ListValues: []string{"near"}},
		{Kind: SigNearestEnemyBand, Op: OpNe, ListValues: []string{"near"}}, // and so is its negation
	}
	for i, c := range cases {
		if mustEval(t, c, env) {
			t.Errorf("case %d: condition over a missing signal must be false", i)
		}
	}
}

func TestEpsilonEquality(t *testing.T) {
	snap := model.UnitSnapshot{ID: "u1", Energy: 50.0005}
	env := envFor(snap, 0, nil)

	if !mustEval(t, Leaf(SigEnergy, OpEq, 50), env) {
		t.Error("values within epsilon should compare equal")
	}
	if mustEval(t, Leaf(SigEnergy, OpNe, 50), env) {
		t.Error("ne within epsilon should be false")
	}
	if !mustEval(t, Leaf(SigEnergy, OpNe, 50.1), env) {
		t.Error("values beyond epsilon should compare not-equal")
	}
}

func TestBetweenInclusive(t *testing.T) {
	snap := model.UnitSnapshot{ID: "u1", Energy: 30}
	env := envFor(snap, 0, nil)

	hi := 30.0
	c := Condition{Kind: SigEnergy, Op: OpBetween, Threshold: 10, Secondary: &hi}
	if !mustEval(t, c, env) {
		t.Error("between should include the upper bound")
	}

	lo := 40.0
	c = Condition{Kind: SigEnergy, Op: OpBetween, Threshold: 30, Secondary: &lo}
	if !mustEval(t, c, env) {
		t.Error("between should include the lower bound")
	}
}

func TestInList(t *testing.T) {
	snap := model.UnitSnapshot{ID: "u1", PrimaryState: "attack"}
	env := envFor(snap, 0, nil)

	c := Condition{Kind: SigPrimaryState, Op: OpInList, ListValues: []string{"attack", "defend"}}
	if !mustEval(t, c, env) {
		t.Error("primary_state attack should match the list")
	}
	c.ListValues = []string{"retreat", "follow"}
	if mustEval(t, c, env) {
		t.Error("primary_state attack should not match a disjoint list")
	}
}

func TestChangedBy(t *testing.T) {
	baselines := map[string]float64{"health_pct": 0.9}
	snap := model.UnitSnapshot{ID: "u1", HealthPct: 0.6}
	env := envFor(snap, 0, baselines)

	c := Condition{Kind: SigHealthPct, Op: OpChangedBy, Threshold: 0.2}
	if !mustEval(t, c, env) {
		t.Error("health dropped 0.3 from baseline, changed_by 0.2 should match")
	}

	c.Threshold = 0.5
	if mustEval(t, c, env) {
		t.Error("delta 0.3 should not satisfy changed_by 0.5")
	}

	// Without a baseline the comparison never matches.
	env = envFor(snap, 0, nil)
	c.Threshold = 0.1
	if mustEval(t, c, env) {
		t.Error("changed_by without a baseline must be false")
	}
}

func TestElapsedTimeSignal(t *testing.T) {
	snap := model.UnitSnapshot{ID: "u1"}
	env := envFor(snap, 12.5, nil)

	if !mustEval(t, Leaf(SigElapsedTime, OpGt, 10), env) {
		t.Error("elapsed 12.5s should exceed 10s")
	}
	if mustEval(t, Leaf(SigElapsedTime, OpGt, 20), env) {
		t.Error("elapsed 12.5s should not exceed 20s")
	}
}

func TestValidateRejectsMalformedTrees(t *testing.T) {
	cases := []struct {
		name string
		c    Condition
	}{
		{"leaf with children", Condition{Kind: SigHealthPct, Op: OpLt, Children: []Condition{Flag(SigUnderFire)}}},
		{"not with two children", Condition{Logic: LogicNot, Children: []Condition{Flag(SigUnderFire), Flag(SigInCover)}}},
		{"and without children", Condition{Logic: LogicAnd}},
		{"compound carrying a comparison", Condition{Logic: LogicAnd, Kind: SigHealthPct, Op: OpLt, Children: []Condition{Flag(SigUnderFire)}}},
		{"between without secondary", Condition{Kind: SigEnergy, Op: OpBetween, Threshold: 1}},
		{"flag with numeric operator", Condition{Kind: SigUnderFire, Op: OpLt}},
		{"text with numeric operator", Condition{Kind: SigPrimaryState, Op: OpGt}},
		{"unknown signal", Condition{Kind: "mana", Op: OpLt, Threshold: 1}},
		{"in_list without values", Condition{Kind: SigPrimaryState, Op: OpInList}},
		{"unknown logic op", Condition{Logic: "xor", Children: []Condition{Flag(SigUnderFire)}}},
	}
	for _, tc := range cases {
		if err := tc.c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestNestedTreeCompiles(t *testing.T) {
	c := Any(
		All(Flag(SigUnderFire), Not(Flag(SigInCover)), Leaf(SigNearestEnemyDist, OpLe, 15)),
		All(Leaf(SigHealthPct, OpLt, 0.3), Flag(SigOutnumbered)),
	)
	if _, err := CompileCondition(c); err != nil {
		t.Fatalf("nested tree should compile: %v", err)
	}
}
