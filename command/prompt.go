package command

import (
	"fmt"
	"strings"

	"fieldmind/model"
)

// BuildPrompt assembles the planner prompt: the player's order, the tier
// classification, a human-readable situation summary and the response
// contract. The response schema itself is enforced downstream, so the prompt
// only sketches the shape.
func BuildPrompt(text string, decision model.ControlTierDecision, units []model.UnitSnapshot, gc model.GameContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Player order: %q\n", text)
	fmt.Fprintf(&b, "Control tier: %s (%s)\n", decision.Tier, decision.Reasoning)
	if decision.Tier == model.TierSquad {
		fmt.Fprintln(&b, "Squad tier: produce one coarse plan per cluster and a priority_list ordering the four primary states (attack, defend, retreat, follow) for matrix tuning.")
	} else {
		fmt.Fprintln(&b, "Individual tier: produce a detailed per-unit plan for each unit. Do not emit priority_list.")
	}
	fmt.Fprintln(&b)

	b.WriteString(summarize(units, gc))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Respond with JSON: {plans: [{unit_ids, steps, triggers, priority_list?}], message, summary}.")
	fmt.Fprintln(&b, "Steps run in order; triggers are reactive conditions that fire at any time.")
	fmt.Fprintln(&b, "Speech lines must stay under twelve words.")

	return b.String()
}

// summarize produces a human-readable text summary of the selection for the
// LLM.
func summarize(units []model.UnitSnapshot, gc model.GameContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Tick: %d | Map: %.0fx%.0f\n", gc.Tick, gc.MapWidth, gc.MapHeight)

	counts := make(map[model.Archetype]int)
	underFire := 0
	var healthSum float64
	enemies := 0
	for _, u := range units {
		counts[u.Archetype]++
		if u.UnderFire {
			underFire++
		}
		healthSum += u.HealthPct
		if len(u.Enemies) > enemies {
			enemies = len(u.Enemies)
		}
	}
	if len(units) > 0 {
		fmt.Fprintf(&b, "Selected units:")
		for a, c := range counts {
			fmt.Fprintf(&b, " %dx %s", c, a)
		}
		fmt.Fprintf(&b, " (avg health %.0f%%, %d under fire)\n", 100*healthSum/float64(len(units)), underFire)
	}
	fmt.Fprintf(&b, "Enemies visible: %d\n", enemies)

	for _, u := range units {
		fmt.Fprintf(&b, "Unit %s [%s]: pos (%.0f, %.0f) health %.0f%% energy %.0f ammo %d state %s\n",
			u.ID, u.Archetype, u.Pos.X, u.Pos.Y, 100*u.HealthPct, u.Energy, u.Ammo, u.PrimaryState)
	}

	if len(gc.NodeNames) > 0 {
		fmt.Fprintf(&b, "Named map nodes: %s\n", strings.Join(gc.NodeNames, ", "))
	}

	return b.String()
}
