package rules

import (
	"math"

	"fieldmind/model"
)

// epsilon guards float equality in eq/ne comparisons.
const epsilon = 1e-3

// EvalContext caches per-unit, per-cycle values so an expensive derivation
// (nearest-enemy distance) is computed at most once per cycle regardless of
// how many triggers read it. Missing values are NaN, and every comparison
// helper treats NaN as "condition not met".
type EvalContext struct {
	NearestEnemyDist float64
	NearestAllyDist  float64
	NearestEnemyBand string
	Elapsed          float64            // seconds since the trigger set was installed
	Baselines        map[string]float64 // signal values captured at install, for changed_by
}

// NewEvalContext derives the cached values from a snapshot once.
func NewEvalContext(snap model.UnitSnapshot, elapsed float64, baselines map[string]float64) *EvalContext {
	ctx := &EvalContext{
		NearestEnemyDist: math.NaN(),
		NearestAllyDist:  math.NaN(),
		Elapsed:          elapsed,
		Baselines:        baselines,
	}
	if e := snap.NearestEnemy(); e != nil {
		ctx.NearestEnemyDist = e.Dist
		ctx.NearestEnemyBand = e.Band
	}
	if a := snap.NearestAlly(); a != nil {
		ctx.NearestAllyDist = a.Dist
	}
	return ctx
}

// TriggerEnv wraps one unit's snapshot and cached context, exposing helper
// methods callable from compiled expr programs. All helpers are pure and
// fail safe: an unknown or missing signal makes the comparison false, never
// a runtime error.
type TriggerEnv struct {
	Snap model.UnitSnapshot
	Ctx  *EvalContext
}

// Signal returns a numeric signal value, NaN when unavailable.
func (e TriggerEnv) Signal(name string) float64 {
	switch SignalKind(name) {
	case SigHealthPct:
		return e.Snap.HealthPct
	case SigEnergy:
		return e.Snap.Energy
	case SigAmmo:
		return float64(e.Snap.Ammo)
	case SigEnemyCount:
		return float64(len(e.Snap.Enemies))
	case SigAllyCount:
		return float64(len(e.Snap.Allies))
	case SigNearestEnemyDist:
		if e.Ctx == nil {
			return math.NaN()
		}
		return e.Ctx.NearestEnemyDist
	case SigNearestAllyDist:
		if e.Ctx == nil {
			return math.NaN()
		}
		return e.Ctx.NearestAllyDist
	case SigElapsedTime:
		if e.Ctx == nil {
			return math.NaN()
		}
		return e.Ctx.Elapsed
	}
	return math.NaN()
}

// Text returns a text signal value, "" when unavailable.
func (e TriggerEnv) Text(name string) string {
	switch SignalKind(name) {
	case SigPrimaryState:
		return e.Snap.PrimaryState
	case SigNearestEnemyBand:
		if e.Ctx == nil {
			return ""
		}
		return e.Ctx.NearestEnemyBand
	}
	return ""
}

// Flag returns a boolean flag, false when unknown.
func (e TriggerEnv) Flag(name string) bool {
	switch SignalKind(name) {
	case SigUnderFire:
		return e.Snap.UnderFire
	case SigInCover:
		return e.Snap.InCover
	case SigFlanked:
		return e.Snap.Flanked
	case SigOutnumbered:
		return e.Snap.Outnumbered
	}
	return false
}

func (e TriggerEnv) Lt(a, b float64) bool { return !math.IsNaN(a) && !math.IsNaN(b) && a < b }
func (e TriggerEnv) Gt(a, b float64) bool { return !math.IsNaN(a) && !math.IsNaN(b) && a > b }
func (e TriggerEnv) Le(a, b float64) bool { return !math.IsNaN(a) && !math.IsNaN(b) && a <= b }
func (e TriggerEnv) Ge(a, b float64) bool { return !math.IsNaN(a) && !math.IsNaN(b) && a >= b }

// Eq and Ne compare within epsilon so float jitter doesn't flip equality.
func (e TriggerEnv) Eq(a, b float64) bool {
	return !math.IsNaN(a) && !math.IsNaN(b) && math.Abs(a-b) <= epsilon
}

func (e TriggerEnv) Ne(a, b float64) bool {
	return !math.IsNaN(a) && !math.IsNaN(b) && math.Abs(a-b) > epsilon
}

// Between is inclusive on both bounds.
func (e TriggerEnv) Between(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

// InList reports whether a text signal value is one of the given values.
func (e TriggerEnv) InList(v string, values ...string) bool {
	if v == "" {
		return false
	}
	for _, s := range values {
		if v == s {
			return true
		}
	}
	return false
}

// NotInList is the negated form, still false when the signal is missing
// (fail-safe wins over boolean symmetry).
func (e TriggerEnv) NotInList(v string, values ...string) bool {
	if v == "" {
		return false
	}
	return !e.InList(v, values...)
}

// ChangedBy reports whether a signal has moved at least delta away from the
// value recorded when the trigger set was installed.
func (e TriggerEnv) ChangedBy(name string, delta float64) bool {
	if e.Ctx == nil || e.Ctx.Baselines == nil {
		return false
	}
	base, ok := e.Ctx.Baselines[name]
	if !ok {
		return false
	}
	cur := e.Signal(name)
	if math.IsNaN(cur) {
		return false
	}
	return math.Abs(cur-base) >= delta
}

// CaptureBaselines records the current numeric signal values for later
// changed_by comparisons. Called once when a trigger set is installed.
func CaptureBaselines(snap model.UnitSnapshot) map[string]float64 {
	env := TriggerEnv{Snap: snap, Ctx: NewEvalContext(snap, 0, nil)}
	base := make(map[string]float64, len(numericSignals))
	for _, sig := range numericSignals {
		if v := env.Signal(string(sig)); !math.IsNaN(v) {
			base[string(sig)] = v
		}
	}
	return base
}
