// Package catalog holds the static registry of executable actions: their
// parameter contracts, costs, cooldowns and archetype eligibility. Built once
// at startup, never mutated at runtime.
package catalog

import (
	"errors"
	"fmt"

	"fieldmind/model"
)

// Kind identifies an action. The set is closed: handlers are registered
// against these constants, so an unknown name fails lookup instead of
// silently matching a string branch.
type Kind string

// Common action set shared by every archetype.
const (
	KindMoveTo       Kind = "move_to"
	KindAttackTarget Kind = "attack_target"
	KindAttackMove   Kind = "attack_move"
	KindHoldPosition Kind = "hold_position"
	KindRetreatTo    Kind = "retreat_to"
	KindTakeCover    Kind = "take_cover"
	KindFollowUnit   Kind = "follow_unit"
	KindFormUp       Kind = "form_up"
)

// Specialist actions.
const (
	KindActivateStealth Kind = "activate_stealth" // scout
	KindSpotTargets     Kind = "spot_targets"     // scout
	KindConstruct       Kind = "construct"        // engineer
	KindRepair          Kind = "repair"           // engineer
	KindLayMines        Kind = "lay_mines"        // engineer
	KindSuppressingFire Kind = "suppressing_fire" // heavy
	KindHeal            Kind = "heal"             // medic
)

// Category describes how an action's completion is detected.
type Category string

const (
	// Immediate actions finish the moment they are dispatched.
	Immediate Category = "immediate"
	// DurationBased actions run for a fixed time window.
	DurationBased Category = "duration"
	// ConditionBased actions finish when an external condition is met; the
	// caller must poll for completion rather than trust a timer.
	ConditionBased Category = "condition"
)

// Def is one immutable catalog entry.
type Def struct {
	Name            Kind
	Category        Category
	RequiredParams  []string
	OptionalParams  []string
	EnergyCost      float64
	Cooldown        float64           // seconds between firings when triggered
	Archetypes      []model.Archetype // empty = every archetype
	Interruptible   bool
	DefaultDuration float64 // DurationBased only
}

// Eligible reports whether the archetype may execute this action.
func (d Def) Eligible(a model.Archetype) bool {
	if len(d.Archetypes) == 0 {
		return true
	}
	for _, r := range d.Archetypes {
		if r == a {
			return true
		}
	}
	return false
}

var ErrNotFound = errors.New("action not in catalog")

// Catalog is the lookup surface over the static defs.
type Catalog struct {
	defs  map[Kind]Def
	order []Kind // stable iteration order for listings
}

// Lookup returns the definition for name, or ErrNotFound.
func (c *Catalog) Lookup(name Kind) (Def, error) {
	d, ok := c.defs[name]
	if !ok {
		return Def{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return d, nil
}

// Kinds returns every registered action kind in registration order.
func (c *Catalog) Kinds() []Kind {
	out := make([]Kind, len(c.order))
	copy(out, c.order)
	return out
}

// KindsFor returns the action kinds an archetype may execute, in
// registration order. Used to build archetype-specific enums for the LLM
// response schema.
func (c *Catalog) KindsFor(a model.Archetype) []Kind {
	var out []Kind
	for _, k := range c.order {
		if c.defs[k].Eligible(a) {
			out = append(out, k)
		}
	}
	return out
}

// ValidateParams reports the required parameter names missing from params.
// An empty result means the params satisfy the contract.
func ValidateParams(d Def, params map[string]any) []string {
	var missing []string
	for _, p := range d.RequiredParams {
		if _, ok := params[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

// ExecutionTime returns the expected duration of the action in seconds.
// The second return is false for ConditionBased actions, whose duration is
// unknowable up front; callers must poll the completion condition instead.
func ExecutionTime(d Def, params map[string]any) (float64, bool) {
	switch d.Category {
	case Immediate:
		return 0, true
	case DurationBased:
		if v, ok := params["duration"]; ok {
			if f, ok := toFloat(v); ok && f > 0 {
				return f, true
			}
		}
		return d.DefaultDuration, true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
