package plan

import (
	"fmt"
	"strings"

	"fieldmind/catalog"
	"fieldmind/model"
)

// ValidationError carries every reason a plan was rejected. Rejection is
// atomic: one bad step among twenty good ones installs nothing.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "plan rejected: " + strings.Join(e.Reasons, "; ")
}

// Validator gates plans and trigger sets before they reach the executor or
// the trigger engine. Bounds come from the tuning file and the host's hello
// handshake (the enumerated node set).
type Validator struct {
	Catalog        *catalog.Catalog
	Nodes          map[string]bool // valid values for "node" params; empty allows any
	MaxDuration    float64
	MaxSpeechWords int
}

func NewValidator(cat *catalog.Catalog, nodes []string, maxDuration float64, maxSpeechWords int) *Validator {
	set := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		set[n] = true
	}
	if maxDuration <= 0 {
		maxDuration = 60
	}
	if maxSpeechWords <= 0 {
		maxSpeechWords = 12
	}
	return &Validator{Catalog: cat, Nodes: set, MaxDuration: maxDuration, MaxSpeechWords: maxSpeechWords}
}

// ValidatePlan checks the whole command plan. archetypeOf resolves a unit id
// to its archetype; unknown units are themselves a validation failure. The
// returned error, if any, is a *ValidationError listing every reason found.
func (v *Validator) ValidatePlan(p CommandPlan, tier model.Tier, archetypeOf func(string) (model.Archetype, bool)) error {
	var reasons []string
	add := func(format string, args ...any) {
		reasons = append(reasons, fmt.Sprintf(format, args...))
	}

	if len(p.Plans) == 0 {
		add("plan has no unit plans")
	}

	for pi, up := range p.Plans {
		if len(up.UnitIDs) == 0 {
			add("plan %d targets no units", pi)
			continue
		}

		archetypes := make([]model.Archetype, 0, len(up.UnitIDs))
		for _, id := range up.UnitIDs {
			a, ok := archetypeOf(id)
			if !ok {
				add("plan %d: unknown unit %q", pi, id)
				continue
			}
			archetypes = append(archetypes, a)
		}

		for si, step := range up.Steps {
			v.checkAction(&reasons, fmt.Sprintf("plan %d step %d", pi, si), step.Action, step.Params, archetypes)
			if step.Duration > v.MaxDuration {
				add("plan %d step %d: duration %.1fs exceeds maximum %.1fs", pi, si, step.Duration, v.MaxDuration)
			}
			v.checkSpeech(&reasons, fmt.Sprintf("plan %d step %d", pi, si), step.Speech)
		}

		for ti, ts := range up.Triggers {
			where := fmt.Sprintf("plan %d trigger %d", pi, ti)
			v.checkAction(&reasons, where, ts.Action, ts.Params, archetypes)
			if err := ts.Condition.Validate(); err != nil {
				add("%s: condition: %v", where, err)
			}
			for qi, pre := range ts.Prerequisites {
				if err := pre.Validate(); err != nil {
					add("%s prerequisite %d: %v", where, qi, err)
				}
			}
			if ts.Cooldown < 0 {
				add("%s: negative cooldown", where)
			}
			v.checkSpeech(&reasons, where, ts.Speech)
		}

		switch tier {
		case model.TierSquad:
			if err := checkPriorityList(up.PriorityList); err != nil {
				add("plan %d: %v", pi, err)
			}
		default:
			if len(up.PriorityList) > 0 {
				add("plan %d: priority list is only valid on squad-tier commands", pi)
			}
		}
	}

	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

// checkAction verifies catalog existence, required params, param bounds and
// archetype eligibility for every targeted unit.
func (v *Validator) checkAction(reasons *[]string, where string, action catalog.Kind, params map[string]any, archetypes []model.Archetype) {
	def, err := v.Catalog.Lookup(action)
	if err != nil {
		*reasons = append(*reasons, fmt.Sprintf("%s: action %q not in catalog", where, action))
		return
	}
	if missing := catalog.ValidateParams(def, params); len(missing) > 0 {
		*reasons = append(*reasons, fmt.Sprintf("%s: action %q missing params: %s", where, action, strings.Join(missing, ", ")))
	}
	for _, a := range archetypes {
		if !def.Eligible(a) {
			*reasons = append(*reasons, fmt.Sprintf("%s: archetype %q is not eligible for %q", where, a, action))
		}
	}
	if node, ok := params["node"].(string); ok && len(v.Nodes) > 0 && !v.Nodes[node] {
		*reasons = append(*reasons, fmt.Sprintf("%s: unknown node %q", where, node))
	}
	if d, ok := params["duration"]; ok {
		if f, ok := d.(float64); ok && f > v.MaxDuration {
			*reasons = append(*reasons, fmt.Sprintf("%s: duration %.1fs exceeds maximum %.1fs", where, f, v.MaxDuration))
		}
	}
}

func (v *Validator) checkSpeech(reasons *[]string, where, speech string) {
	if speech == "" {
		return
	}
	if n := len(strings.Fields(speech)); n > v.MaxSpeechWords {
		*reasons = append(*reasons, fmt.Sprintf("%s: speech is %d words, limit %d", where, n, v.MaxSpeechWords))
	}
}

// checkPriorityList enforces that the list is exactly a permutation of the
// four primary states: no duplicates, no omissions, no foreign values.
func checkPriorityList(list []string) error {
	if len(list) != 4 {
		return fmt.Errorf("priority list has %d entries, want exactly 4", len(list))
	}
	seen := make(map[string]bool, 4)
	valid := make(map[string]bool, 4)
	for _, s := range model.PrimaryStates() {
		valid[s] = true
	}
	for _, s := range list {
		if !valid[s] {
			return fmt.Errorf("priority list contains unknown state %q", s)
		}
		if seen[s] {
			return fmt.Errorf("priority list repeats state %q", s)
		}
		seen[s] = true
	}
	return nil
}
