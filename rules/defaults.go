package rules

import "fieldmind/catalog"

// DefaultTriggers is the self-preservation set every unit carries before a
// command installs anything, and the set the fallback plan re-seeds when the
// LLM is unreachable. Reflexes exist from the first tick; an agenda is
// optional.
func DefaultTriggers(fallbackNode string) []*Trigger {
	retreat := NewTrigger(
		Leaf(SigHealthPct, OpLt, 0.25),
		catalog.KindRetreatTo,
		map[string]any{"node": fallbackNode},
		100,
	)
	retreat.Speech = "Falling back!"

	cover := NewTrigger(
		All(Flag(SigUnderFire), Not(Flag(SigInCover))),
		catalog.KindTakeCover,
		nil,
		80,
	)

	// "nearest" is a host-resolved target alias; the executor picks the
	// closest visible enemy at dispatch time.
	returnFire := NewTrigger(
		All(
			Flag(SigUnderFire),
			Leaf(SigNearestEnemyDist, OpLt, 20),
			Leaf(SigAmmo, OpGt, 0),
		),
		catalog.KindAttackTarget,
		map[string]any{"target_id": "nearest"},
		60,
	)

	return []*Trigger{retreat, cover, returnFire}
}
