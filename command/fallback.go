package command

import (
	"fieldmind/catalog"
	"fieldmind/plan"
)

// FallbackSteps is the locally-synthesized plan used when the planner is
// unreachable or returns garbage: hold position and let the default trigger
// set handle self-preservation. No LLM involvement, valid by construction.
func FallbackSteps() []plan.Step {
	return []plan.Step{
		{
			Action: catalog.KindHoldPosition,
			Params: map[string]any{},
			Speech: "Holding position.",
		},
	}
}
