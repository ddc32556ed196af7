// Package plan owns the "conscious" layer: the per-unit sequential plan, the
// behavior-matrix tuning that squad commands perform, and the validator that
// gates everything before installation.
package plan

import (
	"fieldmind/catalog"
	"fieldmind/rules"
)

// Step is one entry of a sequential plan.
type Step struct {
	Action   catalog.Kind   `json:"action"`
	Params   map[string]any `json:"params,omitempty"`
	Speech   string         `json:"speech,omitempty"`
	Duration float64        `json:"duration,omitempty"` // seconds, DurationBased only
}

// TriggerSpec is the wire form of a reactive trigger inside an LLM plan.
type TriggerSpec struct {
	Condition     rules.Condition   `json:"condition"`
	Prerequisites []rules.Condition `json:"prerequisites,omitempty"`
	Action        catalog.Kind      `json:"action"`
	Params        map[string]any    `json:"params,omitempty"`
	Priority      int               `json:"priority"`
	Speech        string            `json:"speech,omitempty"`
	Cooldown      float64           `json:"cooldown,omitempty"`
}

// Build converts the wire form into an installable trigger.
func (ts TriggerSpec) Build() *rules.Trigger {
	t := rules.NewTrigger(ts.Condition, ts.Action, ts.Params, ts.Priority)
	t.Prerequisites = ts.Prerequisites
	t.Speech = ts.Speech
	t.Cooldown = ts.Cooldown
	return t
}

// UnitPlan targets one or more units with the same steps and triggers.
// Squad-tier plans additionally carry the primary-state priority list that
// drives behavior-matrix tuning.
type UnitPlan struct {
	UnitIDs      []string      `json:"unit_ids"`
	Steps        []Step        `json:"steps"`
	Triggers     []TriggerSpec `json:"triggers"`
	PriorityList []string      `json:"priority_list,omitempty"`
}

// CommandPlan is the structured response shape the LLM must produce:
// {plans, message, summary}.
type CommandPlan struct {
	Plans   []UnitPlan `json:"plans"`
	Message string     `json:"message"`
	Summary string     `json:"summary"`
}
